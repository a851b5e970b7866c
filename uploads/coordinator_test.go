package uploads

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"productos_catalog/structs"

	"github.com/MonkyMars/gecho"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockObjectStore lets a test hold individual uploads until it releases them
type mockObjectStore struct {
	mu       sync.Mutex
	gates    map[string]chan struct{}
	failures map[string]error
	puts     atomic.Int32
}

func newMockObjectStore() *mockObjectStore {
	return &mockObjectStore{gates: map[string]chan struct{}{}, failures: map[string]error{}}
}

// hold makes uploads of fileName block until the returned func is called
func (m *mockObjectStore) hold(fileName string) func() {
	gate := make(chan struct{})
	m.mu.Lock()
	m.gates[fileName] = gate
	m.mu.Unlock()
	return func() { close(gate) }
}

func (m *mockObjectStore) fail(fileName string, err error) {
	m.mu.Lock()
	m.failures[fileName] = err
	m.mu.Unlock()
}

func (m *mockObjectStore) lookup(name string) (chan struct{}, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for file, gate := range m.gates {
		if strings.HasSuffix(name, "_"+file) {
			return gate, m.failures[file]
		}
	}
	for file, err := range m.failures {
		if strings.HasSuffix(name, "_"+file) {
			return nil, err
		}
	}
	return nil, nil
}

func (m *mockObjectStore) Put(ctx context.Context, name string, data []byte, contentType string) (string, error) {
	m.puts.Add(1)
	gate, err := m.lookup(name)
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if err != nil {
		return "", err
	}
	return "https://objects.test/" + name, nil
}

func file(name string) File {
	return File{Name: name, Source: "/tmp/" + name, Data: []byte("%PDF-1.4 sample")}
}

type outcome struct {
	photos    []string
	documents []string
	err       *UploadError
	calls     atomic.Int32
	done      chan struct{}
}

func newOutcome() *outcome {
	return &outcome{done: make(chan struct{}, 2)}
}

func (o *outcome) success(p, d []string) {
	o.calls.Add(1)
	o.photos, o.documents = p, d
	o.done <- struct{}{}
}

func (o *outcome) failure(err *UploadError) {
	o.calls.Add(1)
	o.err = err
	o.done <- struct{}{}
}

func (o *outcome) wait(t *testing.T) {
	t.Helper()
	select {
	case <-o.done:
	case <-time.After(2 * time.Second):
		t.Fatal("no callback fired")
	}
}

func TestUploadBySourceKeepsSubmissionOrder(t *testing.T) {
	store := newMockObjectStore()
	release := store.hold("a.jpg")
	c := NewCoordinator(store, gecho.NewDefaultLogger(), ClassifyBySource)

	o := newOutcome()
	batch := c.Upload(context.Background(),
		[]File{file("a.jpg"), file("b.jpg")},
		[]File{file("c.pdf")},
		o.success, o.failure)

	// b.jpg and c.pdf finish first, a.jpg last
	time.Sleep(20 * time.Millisecond)
	release()
	o.wait(t)
	require.NoError(t, batch.Wait())

	assert.Equal(t, int32(1), o.calls.Load())
	require.Len(t, o.photos, 2)
	require.Len(t, o.documents, 1)
	assert.True(t, strings.HasPrefix(o.photos[0], "https://objects.test/images/"))
	assert.True(t, strings.HasSuffix(o.photos[0], "_a.jpg"))
	assert.True(t, strings.HasSuffix(o.photos[1], "_b.jpg"))
	assert.True(t, strings.HasPrefix(o.documents[0], "https://objects.test/documents/"))
	assert.True(t, strings.HasSuffix(o.documents[0], "_c.pdf"))
}

func TestUploadByArrivalUsesCompletionOrder(t *testing.T) {
	store := newMockObjectStore()
	release := store.hold("a.jpg")
	c := NewCoordinator(store, gecho.NewDefaultLogger(), ClassifyByArrival)

	o := newOutcome()
	batch := c.Upload(context.Background(),
		[]File{file("a.jpg")},
		[]File{file("c.pdf")},
		o.success, o.failure)

	time.Sleep(20 * time.Millisecond)
	release()
	o.wait(t)
	require.NoError(t, batch.Wait())

	// The document finished first and is therefore counted as the photo
	require.Len(t, o.photos, 1)
	require.Len(t, o.documents, 1)
	assert.True(t, strings.HasSuffix(o.photos[0], "_c.pdf"))
	assert.True(t, strings.HasSuffix(o.documents[0], "_a.jpg"))
}

func TestUploadFailureFiresOnceWithoutWaiting(t *testing.T) {
	store := newMockObjectStore()
	release := store.hold("slow.jpg")
	boom := errors.New("bucket unavailable")
	store.fail("bad.pdf", boom)
	c := NewCoordinator(store, gecho.NewDefaultLogger(), ClassifyBySource)

	o := newOutcome()
	batch := c.Upload(context.Background(),
		[]File{file("slow.jpg")},
		[]File{file("bad.pdf")},
		o.success, o.failure)

	// The failure is reported while slow.jpg is still in flight
	o.wait(t)
	require.NotNil(t, o.err)
	assert.Equal(t, "bad.pdf", o.err.File)
	assert.ErrorIs(t, o.err, boom)

	release()
	err := batch.Wait()
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, int32(1), o.calls.Load())
	assert.Equal(t, int32(2), store.puts.Load())
}

func TestUploadEmptySucceedsImmediately(t *testing.T) {
	c := NewCoordinator(newMockObjectStore(), gecho.NewDefaultLogger(), ClassifyBySource)
	o := newOutcome()

	require.NoError(t, c.Upload(context.Background(), nil, nil, o.success, o.failure).Wait())
	o.wait(t)
	assert.Empty(t, o.photos)
	assert.Empty(t, o.documents)
}

func TestParseClassification(t *testing.T) {
	assert.Equal(t, ClassifyByArrival, ParseClassification("Arrival"))
	assert.Equal(t, ClassifyBySource, ParseClassification("source"))
	assert.Equal(t, ClassifyBySource, ParseClassification(""))
}

type recordingCatalog struct {
	created   *structs.ProductRequest
	updatedID int64
	updated   *structs.ProductRequest
	err       error
}

func (r *recordingCatalog) Create(ctx context.Context, req *structs.ProductRequest) error {
	r.created = req
	return r.err
}

func (r *recordingCatalog) Update(ctx context.Context, id int64, req *structs.ProductRequest) error {
	r.updatedID, r.updated = id, req
	return r.err
}

func TestUploadAndCreate(t *testing.T) {
	c := NewCoordinator(newMockObjectStore(), gecho.NewDefaultLogger(), ClassifyBySource)
	catalog := &recordingCatalog{}

	sel := &Selection{}
	require.NoError(t, sel.AddPhoto(File{Name: "rose.jpg", Source: "/tmp/rose.jpg", Data: []byte{0xFF, 0xD8, 0xFF, 0xE0}}))
	require.NoError(t, sel.AddDocument(file("care.pdf")))

	batch, err := c.UploadAndCreate(context.Background(), catalog, "Rose", "R-1", sel)
	require.NoError(t, err)
	require.NoError(t, batch.Wait())

	req := catalog.created
	require.NotNil(t, req)
	assert.Equal(t, "Rose", req.ProductName)
	require.Len(t, req.Photos, 1)
	assert.Contains(t, req.Photos[0].LargePhoto, "_rose.jpg")
	require.Len(t, req.Documents, 1)
	doc := req.Documents[0]
	assert.Equal(t, "care.pdf", doc.Title)
	assert.Equal(t, "/tmp/care.pdf", doc.FileName)
	assert.Equal(t, "pdf", doc.FileExtension)
	assert.Equal(t, "", doc.Revision)
	assert.Contains(t, doc.DocumentFile, "_care.pdf")
}

func TestUploadAndUpdateErrors(t *testing.T) {
	store := newMockObjectStore()
	c := NewCoordinator(store, gecho.NewDefaultLogger(), ClassifyBySource)
	catalog := &recordingCatalog{}

	_, err := c.UploadAndUpdate(context.Background(), catalog, 3, "n", "1", &Selection{})
	assert.ErrorIs(t, err, ErrEmptySelection)
	assert.Zero(t, store.puts.Load())

	store.fail("x.jpg", errors.New("offline"))
	sel := &Selection{Photos: []File{file("x.jpg")}}
	batch, err := c.UploadAndUpdate(context.Background(), catalog, 3, "n", "1", sel)
	var uerr *UploadError
	require.ErrorAs(t, err, &uerr)
	_ = batch.Wait()
	assert.Nil(t, catalog.updated)

	catalog.err = errors.New("503")
	_, err = c.UploadAndUpdate(context.Background(), catalog, 3, "n", "1", &Selection{Photos: []File{file("ok.jpg")}})
	assert.Error(t, err)
	assert.Equal(t, int64(3), catalog.updatedID)
}

// jitterStore completes every upload after a random delay and fails the named file
type jitterStore struct {
	failing string
}

func (j *jitterStore) Put(ctx context.Context, name string, data []byte, contentType string) (string, error) {
	time.Sleep(time.Duration(rand.IntN(300)) * time.Microsecond)
	if j.failing != "" && strings.HasSuffix(name, "_"+j.failing) {
		return "", errors.New("upload rejected")
	}
	return "https://objects.test/" + name, nil
}

func selection(n int) (photos, documents []File) {
	for i := 0; i < n; i++ {
		photos = append(photos, file(fmt.Sprintf("p%d.jpg", i)))
		documents = append(documents, file(fmt.Sprintf("d%d.pdf", i)))
	}
	return photos, documents
}

func TestUploadUnderRandomInterleaving(t *testing.T) {
	photos, documents := selection(MaxFilesPerKind)
	iterations := 200
	if testing.Short() {
		iterations = 20
	}

	t.Run("by source", func(t *testing.T) {
		c := NewCoordinator(&jitterStore{}, gecho.NewDefaultLogger(), ClassifyBySource)
		for i := 0; i < iterations; i++ {
			o := newOutcome()
			batch := c.Upload(context.Background(), photos, documents, o.success, o.failure)
			o.wait(t)
			require.NoError(t, batch.Wait())

			require.Equal(t, int32(1), o.calls.Load())
			require.Len(t, o.photos, len(photos))
			require.Len(t, o.documents, len(documents))
			for k := range photos {
				assert.True(t, strings.HasSuffix(o.photos[k], "_"+photos[k].Name))
				assert.True(t, strings.HasSuffix(o.documents[k], "_"+documents[k].Name))
			}
		}
	})

	t.Run("by arrival", func(t *testing.T) {
		c := NewCoordinator(&jitterStore{}, gecho.NewDefaultLogger(), ClassifyByArrival)
		for i := 0; i < iterations; i++ {
			o := newOutcome()
			batch := c.Upload(context.Background(), photos, documents, o.success, o.failure)
			o.wait(t)
			require.NoError(t, batch.Wait())

			require.Equal(t, int32(1), o.calls.Load())
			require.Len(t, o.photos, len(photos))
			require.Len(t, o.documents, len(documents))

			seen := map[string]bool{}
			for _, u := range append(append([]string{}, o.photos...), o.documents...) {
				seen[u[strings.LastIndex(u, "_")+1:]] = true
			}
			assert.Len(t, seen, len(photos)+len(documents))
		}
	})

	t.Run("one failure", func(t *testing.T) {
		for i := 0; i < iterations; i++ {
			failing := documents[rand.IntN(len(documents))].Name
			if i%2 == 0 {
				failing = photos[rand.IntN(len(photos))].Name
			}
			c := NewCoordinator(&jitterStore{failing: failing}, gecho.NewDefaultLogger(), ClassifyBySource)

			o := newOutcome()
			batch := c.Upload(context.Background(), photos, documents, o.success, o.failure)
			o.wait(t)
			_ = batch.Wait()

			require.Equal(t, int32(1), o.calls.Load())
			require.NotNil(t, o.err)
			assert.Equal(t, failing, o.err.File)
			assert.Nil(t, o.photos)
		}
	})
}

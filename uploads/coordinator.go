// Package uploads turns a selection of local files into remote URLs and submits the resulting
// product to the catalog.
package uploads

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/MonkyMars/gecho"
	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/sync/errgroup"
)

// Classification decides how finished uploads are sorted back into photos and documents
type Classification int

const (
	// ClassifyBySource keeps every URL with the file it came from, in submission order
	ClassifyBySource Classification = iota
	// ClassifyByArrival treats the first len(photos) finished uploads as photos and the rest as
	// documents, in completion order. Older clients behaved this way.
	ClassifyByArrival
)

// ParseClassification maps "source" or "arrival" to a mode, defaulting to ClassifyBySource
func ParseClassification(s string) Classification {
	if strings.EqualFold(strings.TrimSpace(s), "arrival") {
		return ClassifyByArrival
	}
	return ClassifyBySource
}

const (
	photoFolder    = "images"
	documentFolder = "documents"
	maxConcurrent  = 2 * MaxFilesPerKind
)

// UploadError reports the first file that could not be stored
type UploadError struct {
	File string
	Err  error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload of %s failed: %v", e.File, e.Err)
}

func (e *UploadError) Unwrap() error {
	return e.Err
}

type Coordinator struct {
	store  ObjectStore
	logger *gecho.Logger
	mode   Classification
}

func NewCoordinator(store ObjectStore, logger *gecho.Logger, mode Classification) *Coordinator {
	return &Coordinator{
		store:  store,
		logger: logger,
		mode:   mode,
	}
}

// Batch tracks the goroutines of one Upload call
type Batch struct {
	g *errgroup.Group
}

// Wait blocks until every upload of the batch has finished, including those still running after
// a failure was reported. It returns the first upload error.
func (b *Batch) Wait() error {
	if b == nil || b.g == nil {
		return nil
	}
	return b.g.Wait()
}

// batchState is the join point of one batch. Every field is guarded by mu.
type batchState struct {
	mu        sync.Mutex
	mode      Classification
	total     int
	done      int
	failed    bool
	photos    []string
	documents []string
	nPhotos   int
	onSuccess func(photoURLs, documentURLs []string)
	onFailure func(*UploadError)
}

// complete records one finished upload and fires at most one callback for the whole batch
func (st *batchState) complete(isPhoto bool, index int, url string, err *UploadError) {
	st.mu.Lock()
	defer st.mu.Unlock()

	if st.failed {
		return
	}
	if err != nil {
		st.failed = true
		st.onFailure(err)
		return
	}

	switch st.mode {
	case ClassifyByArrival:
		if st.done < st.nPhotos {
			st.photos = append(st.photos, url)
		} else {
			st.documents = append(st.documents, url)
		}
	default:
		if isPhoto {
			st.photos[index] = url
		} else {
			st.documents[index] = url
		}
	}

	st.done++
	if st.done == st.total {
		st.onSuccess(st.photos, st.documents)
	}
}

// Upload stores every file in its own goroutine. onSuccess fires once with all URLs when every
// upload succeeded. onFailure fires once as soon as any upload fails; the remaining uploads are
// neither cancelled nor awaited and onSuccess never fires for the batch.
func (c *Coordinator) Upload(ctx context.Context, photos, documents []File, onSuccess func(photoURLs, documentURLs []string), onFailure func(*UploadError)) *Batch {
	st := &batchState{
		mode:      c.mode,
		total:     len(photos) + len(documents),
		nPhotos:   len(photos),
		onSuccess: onSuccess,
		onFailure: onFailure,
	}
	if c.mode == ClassifyBySource {
		st.photos = make([]string, len(photos))
		st.documents = make([]string, len(documents))
	} else {
		st.photos = make([]string, 0, len(photos))
		st.documents = make([]string, 0, len(documents))
	}

	g := new(errgroup.Group)
	g.SetLimit(maxConcurrent)
	batch := &Batch{g: g}

	if st.total == 0 {
		onSuccess(st.photos, st.documents)
		return batch
	}

	c.logger.Debug("Uploading selection",
		gecho.Field("photos", len(photos)),
		gecho.Field("documents", len(documents)),
	)

	launch := func(f File, folder string, isPhoto bool, index int) {
		g.Go(func() error {
			name := ObjectName(folder, f.Name)
			url, err := c.store.Put(ctx, name, f.Data, mimetype.Detect(f.Data).String())
			if err != nil {
				c.logger.Error("Upload failed", gecho.Field("file", f.Name), gecho.Field("error", err))
				uerr := &UploadError{File: f.Name, Err: err}
				st.complete(isPhoto, index, "", uerr)
				return uerr
			}
			st.complete(isPhoto, index, url, nil)
			return nil
		})
	}

	for i, f := range photos {
		launch(f, photoFolder, true, i)
	}
	for i, f := range documents {
		launch(f, documentFolder, false, i)
	}

	return batch
}

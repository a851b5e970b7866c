package uploads

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// ObjectStore uploads one object and returns the URL it can be fetched from
type ObjectStore interface {
	Put(ctx context.Context, name string, data []byte, contentType string) (string, error)
}

// ObjectName builds "<folder>/<time ordered id>_<file name>" so repeated names never collide
func ObjectName(folder, fileName string) string {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return folder + "/" + id.String() + "_" + path.Base(fileName)
}

// JetStreamObjectStore implements ObjectStore using NATS JetStream Object Store.
type JetStreamObjectStore struct {
	conn       *nats.Conn
	js         jetstream.JetStream
	store      jetstream.ObjectStore
	bucketName string
	publicBase string
}

// NewJetStreamObjectStore connects to NATS. Init must be called before Put.
func NewJetStreamObjectStore(natsURL, bucketName, publicBaseURL string) (*JetStreamObjectStore, error) {
	conn, err := nats.Connect(natsURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	return &JetStreamObjectStore{
		conn:       conn,
		js:         js,
		bucketName: bucketName,
		publicBase: strings.TrimSuffix(publicBaseURL, "/"),
	}, nil
}

// Init opens the bucket, creating it on first use
func (s *JetStreamObjectStore) Init(ctx context.Context) error {
	store, err := s.js.ObjectStore(ctx, s.bucketName)
	if err == nil {
		s.store = store
		return nil
	}

	store, err = s.js.CreateObjectStore(ctx, jetstream.ObjectStoreConfig{
		Bucket:      s.bucketName,
		Description: "Product photos and documents",
	})
	if err != nil {
		return fmt.Errorf("failed to create object store bucket: %w", err)
	}

	s.store = store
	return nil
}

// Put stores data under name in a single attempt
func (s *JetStreamObjectStore) Put(ctx context.Context, name string, data []byte, contentType string) (string, error) {
	meta := jetstream.ObjectMeta{
		Name: name,
		Headers: nats.Header{
			"Content-Type": []string{contentType},
		},
	}

	if _, err := s.store.Put(ctx, meta, bytes.NewReader(data)); err != nil {
		return "", fmt.Errorf("failed to store object %s: %w", name, err)
	}

	return s.URL(name), nil
}

// URL is the public location of an object
func (s *JetStreamObjectStore) URL(name string) string {
	return s.publicBase + "/" + s.bucketName + "/" + (&url.URL{Path: name}).EscapedPath()
}

// Close closes the NATS connection.
func (s *JetStreamObjectStore) Close() error {
	if s.conn != nil {
		s.conn.Close()
	}
	return nil
}

package uploads

import (
	"context"
	"fmt"

	"productos_catalog/structs"
)

// CatalogWriter is the part of the catalog client used to submit products
type CatalogWriter interface {
	Create(ctx context.Context, req *structs.ProductRequest) error
	Update(ctx context.Context, id int64, req *structs.ProductRequest) error
}

type uploadResult struct {
	photos    []string
	documents []string
	err       error
}

// uploadSelection runs one batch and blocks until its single callback fired. On failure the
// returned batch may still have uploads in flight.
func (c *Coordinator) uploadSelection(ctx context.Context, sel *Selection) (uploadResult, *Batch) {
	results := make(chan uploadResult, 1)
	batch := c.Upload(ctx, sel.Photos, sel.Documents,
		func(photoURLs, documentURLs []string) {
			results <- uploadResult{photos: photoURLs, documents: documentURLs}
		},
		func(err *UploadError) {
			results <- uploadResult{err: err}
		},
	)

	select {
	case res := <-results:
		return res, batch
	case <-ctx.Done():
		return uploadResult{err: ctx.Err()}, batch
	}
}

func (c *Coordinator) buildRequest(ctx context.Context, name, number string, sel *Selection) (*structs.ProductRequest, *Batch, error) {
	if err := sel.Validate(); err != nil {
		return nil, nil, err
	}

	res, batch := c.uploadSelection(ctx, sel)
	if res.err != nil {
		return nil, batch, res.err
	}

	return structs.NewProductRequest(name, number,
		AssemblePhotos(res.photos),
		AssembleDocuments(sel.Documents, res.documents),
	), batch, nil
}

// UploadAndCreate uploads the selection and submits a new product built from the URLs. When an
// upload fails the returned batch can be waited on to let the other uploads finish.
func (c *Coordinator) UploadAndCreate(ctx context.Context, catalog CatalogWriter, name, number string, sel *Selection) (*Batch, error) {
	req, batch, err := c.buildRequest(ctx, name, number, sel)
	if err != nil {
		return batch, err
	}

	if err := catalog.Create(ctx, req); err != nil {
		return batch, fmt.Errorf("failed to create product: %w", err)
	}
	return batch, nil
}

// UploadAndUpdate uploads the selection and replaces name, number and children of product id
func (c *Coordinator) UploadAndUpdate(ctx context.Context, catalog CatalogWriter, id int64, name, number string, sel *Selection) (*Batch, error) {
	req, batch, err := c.buildRequest(ctx, name, number, sel)
	if err != nil {
		return batch, err
	}

	if err := catalog.Update(ctx, id, req); err != nil {
		return batch, fmt.Errorf("failed to update product %d: %w", id, err)
	}
	return batch, nil
}

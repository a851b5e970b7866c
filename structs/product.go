package structs

import "productos_catalog/structs/tables"

// ProductRequest is the body of create and update calls. Identifier and foreign key fields on
// the children are accepted for wire compatibility but are always regenerated by the store.
type ProductRequest struct {
	ProductID     int64             `json:"productId,omitempty"`
	ProductName   string            `json:"productName" validate:"max=200"`
	ProductNumber string            `json:"productNumber" validate:"max=100"`
	Photos        []PhotoRequest    `json:"photos" validate:"dive"`
	Documents     []DocumentRequest `json:"documents" validate:"dive"`
}

type PhotoRequest struct {
	ProductPhotoID int64  `json:"productPhotoId,omitempty"`
	LargePhoto     string `json:"largePhoto" validate:"max=2048"`
	ProductID      int64  `json:"productId,omitempty"`
}

type DocumentRequest struct {
	DocumentID    int64  `json:"documentId,omitempty"`
	Title         string `json:"title" validate:"max=255"`
	FileName      string `json:"fileName" validate:"max=2048"`
	FileExtension string `json:"fileExtension" validate:"max=255"`
	Revision      string `json:"revision" validate:"max=255"`
	DocumentFile  string `json:"documentFile" validate:"max=2048"`
	ProductID     int64  `json:"productId,omitempty"`
}

// ToTable converts the request into a product aggregate with every identifier cleared.
func (pr *ProductRequest) ToTable() *tables.Product {
	product := &tables.Product{
		Name:      pr.ProductName,
		Number:    pr.ProductNumber,
		Photos:    make([]tables.ProductPhoto, 0, len(pr.Photos)),
		Documents: make([]tables.Document, 0, len(pr.Documents)),
	}
	for _, p := range pr.Photos {
		product.Photos = append(product.Photos, tables.ProductPhoto{LargePhoto: p.LargePhoto})
	}
	for _, d := range pr.Documents {
		product.Documents = append(product.Documents, tables.Document{
			Title:         d.Title,
			FileName:      d.FileName,
			FileExtension: d.FileExtension,
			Revision:      d.Revision,
			DocumentFile:  d.DocumentFile,
		})
	}
	return product
}

// NewProductRequest builds the wire body for a product aggregate.
func NewProductRequest(name, number string, photos []tables.ProductPhoto, documents []tables.Document) *ProductRequest {
	req := &ProductRequest{
		ProductName:   name,
		ProductNumber: number,
		Photos:        make([]PhotoRequest, 0, len(photos)),
		Documents:     make([]DocumentRequest, 0, len(documents)),
	}
	for _, p := range photos {
		req.Photos = append(req.Photos, PhotoRequest{LargePhoto: p.LargePhoto})
	}
	for _, d := range documents {
		req.Documents = append(req.Documents, DocumentRequest{
			Title:         d.Title,
			FileName:      d.FileName,
			FileExtension: d.FileExtension,
			Revision:      d.Revision,
			DocumentFile:  d.DocumentFile,
		})
	}
	return req
}

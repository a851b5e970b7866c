package tables

import "github.com/uptrace/bun"

// Product is the root of the catalog aggregate. Photos and Documents are owned by it and are
// replaced wholesale on update.
type Product struct {
	bun.BaseModel `bun:"table:products,alias:p" json:"-"`
	ID            int64          `bun:"id,pk,autoincrement" json:"productId"`
	Name          string         `bun:"name,notnull" json:"productName"`
	Number        string         `bun:"number,notnull" json:"productNumber"` // free-form, not the primary key
	Photos        []ProductPhoto `bun:"rel:has-many,join:id=product_id" json:"photos"`
	Documents     []Document     `bun:"rel:has-many,join:id=product_id" json:"documents"`
}

// ProductPhoto references a remote image
type ProductPhoto struct {
	bun.BaseModel `bun:"table:product_photos,alias:pp" json:"-"`
	ID            int64  `bun:"id,pk,autoincrement" json:"productPhotoId"`
	LargePhoto    string `bun:"large_photo,notnull" json:"largePhoto"`
	ProductID     int64  `bun:"product_id,notnull" json:"productId"`
}

// Document references a remote file together with its descriptive metadata
type Document struct {
	bun.BaseModel `bun:"table:documents,alias:d" json:"-"`
	ID            int64  `bun:"id,pk,autoincrement" json:"documentId"`
	Title         string `bun:"title,notnull" json:"title"`
	FileName      string `bun:"file_name,notnull" json:"fileName"`
	FileExtension string `bun:"file_extension,notnull" json:"fileExtension"`
	Revision      string `bun:"revision,notnull" json:"revision"`
	DocumentFile  string `bun:"document_file,notnull" json:"documentFile"`
	ProductID     int64  `bun:"product_id,notnull" json:"productId"`
}

package uploads

import (
	"strings"

	"productos_catalog/structs/tables"

	"github.com/gabriel-vasile/mimetype"
)

// AssemblePhotos turns uploaded image URLs into photo records
func AssemblePhotos(urls []string) []tables.ProductPhoto {
	photos := make([]tables.ProductPhoto, 0, len(urls))
	for _, u := range urls {
		photos = append(photos, tables.ProductPhoto{LargePhoto: u})
	}
	return photos
}

// AssembleDocuments pairs document files with their uploaded URLs by position
func AssembleDocuments(files []File, urls []string) []tables.Document {
	documents := make([]tables.Document, 0, len(urls))
	for i, u := range urls {
		if i >= len(files) {
			break
		}
		f := files[i]
		documents = append(documents, tables.Document{
			Title:         f.Name,
			FileName:      f.Source,
			FileExtension: Extension(f.Data),
			Revision:      "",
			DocumentFile:  u,
		})
	}
	return documents
}

// Extension is the MIME subtype of data, or "unknown" when the type cannot be determined
func Extension(data []byte) string {
	if len(data) == 0 {
		return "unknown"
	}
	mtype := mimetype.Detect(data)
	if mtype.Is("application/octet-stream") {
		return "unknown"
	}

	mime := mtype.String()
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = mime[:i]
	}
	_, sub, ok := strings.Cut(mime, "/")
	if !ok || sub == "" {
		return "unknown"
	}
	return sub
}

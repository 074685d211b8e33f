package assets

import (
	"fmt"
	"image"

	"github.com/gen2brain/go-fitz"
)

// DocumentSource renders pages of a PDF (or any MuPDF-supported document)
// into image assets, so slide decks can be placed as Image elements.
type DocumentSource struct {
	doc  *fitz.Document
	path string
}

// OpenDocument opens a document for page rendering.
func OpenDocument(path string) (*DocumentSource, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("open document %s: %w", path, err)
	}
	return &DocumentSource{doc: doc, path: path}, nil
}

func (d *DocumentSource) PageCount() int { return d.doc.NumPage() }

// RenderPage rasterises a page at the given DPI. Rendering opens a private
// document handle because MuPDF contexts are not safe for shared use.
func (d *DocumentSource) RenderPage(index, dpi int) (image.Image, error) {
	workerDoc, err := fitz.New(d.path)
	if err != nil {
		return nil, fmt.Errorf("open worker document: %w", err)
	}
	defer workerDoc.Close()
	img, err := workerDoc.ImageDPI(index, float64(dpi))
	if err != nil {
		return nil, fmt.Errorf("render page %d of %s: %w", index, d.path, err)
	}
	return img, nil
}

// RegisterPages decodes every page into the cache under keys of the form
// "<path>#page=<n>" and returns the keys in page order.
func (d *DocumentSource) RegisterPages(cache *Cache, dpi int) ([]string, error) {
	keys := make([]string, 0, d.PageCount())
	for i := 0; i < d.PageCount(); i++ {
		img, err := d.RenderPage(i, dpi)
		if err != nil {
			return keys, err
		}
		key := fmt.Sprintf("%s#page=%d", d.path, i+1)
		cache.Put(key, img)
		keys = append(keys, key)
	}
	return keys, nil
}

func (d *DocumentSource) Close() error { return d.doc.Close() }

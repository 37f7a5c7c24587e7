package pdfdoc

import (
	"fmt"
	"image"
)

// FakePage describes one page of a FakeDocument.
type FakePage struct {
	Text   string
	Width  float64 // points
	Height float64 // points
}

// FakeDocument is an in-memory Document for tests.
type FakeDocument struct {
	Pages  []FakePage
	Closed bool
}

func (d *FakeDocument) NumPages() int {
	return len(d.Pages)
}

func (d *FakeDocument) PageText(page int) (string, error) {
	if page < 0 || page >= len(d.Pages) {
		return "", fmt.Errorf("page %d out of range", page)
	}
	return d.Pages[page].Text, nil
}

func (d *FakeDocument) PageSize(page int) (float64, float64, error) {
	if page < 0 || page >= len(d.Pages) {
		return 0, 0, fmt.Errorf("page %d out of range", page)
	}
	p := d.Pages[page]
	w, h := p.Width, p.Height
	if w == 0 {
		w = 612 // US Letter
	}
	if h == 0 {
		h = 792
	}
	return w, h, nil
}

func (d *FakeDocument) RenderImage(page int, dpi int) (image.Image, error) {
	w, h, err := d.PageSize(page)
	if err != nil {
		return nil, err
	}
	px := int(w * float64(dpi) / 72)
	py := int(h * float64(dpi) / 72)
	return image.NewRGBA(image.Rect(0, 0, px, py)), nil
}

func (d *FakeDocument) Close() error {
	d.Closed = true
	return nil
}

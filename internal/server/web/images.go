package web

import (
	"bytes"
	"image"
	"image/color"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	"github.com/dmitrijs2005/gophblog/internal/common"
	"github.com/go-chi/chi/v5"
)

var startTime = time.Now()

// handleProfileImage serves locally stored pictures and the shared placeholder.
func (s *Server) handleProfileImage(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if name == "" || name != filepath.Base(name) || name[0] == '.' {
		s.renderError(w, r, http.StatusNotFound)
		return
	}

	if s.imageDir != "" {
		p := filepath.Join(s.imageDir, name)
		if fi, err := os.Stat(p); err == nil && fi.Mode().IsRegular() {
			http.ServeFile(w, r, p)
			return
		}
	}

	if name == common.DefaultImageFile {
		b, err := placeholder()
		if err != nil {
			s.serverError(w, r, err)
			return
		}
		w.Header().Set("Content-Type", "image/jpeg")
		http.ServeContent(w, r, name, startTime, bytes.NewReader(b))
		return
	}

	s.renderError(w, r, http.StatusNotFound)
}

// placeholder renders the default picture: a grey head and shoulders on a
// light background.
var placeholder = sync.OnceValues(func() ([]byte, error) {
	const size = 125
	bg := color.NRGBA{R: 0xe9, G: 0xec, B: 0xef, A: 0xff}
	fg := color.NRGBA{R: 0xad, G: 0xb5, B: 0xbd, A: 0xff}

	img := imaging.New(size, size, bg)
	fillCircle(img, size/2, 48, 24, fg)
	fillCircle(img, size/2, 130, 50, fg)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(90)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
})

func fillCircle(img *image.NRGBA, cx, cy, r int, c color.NRGBA) {
	b := img.Bounds()
	for y := cy - r; y <= cy+r; y++ {
		for x := cx - r; x <= cx+r; x++ {
			dx, dy := x-cx, y-cy
			if dx*dx+dy*dy <= r*r && image.Pt(x, y).In(b) {
				img.SetNRGBA(x, y, c)
			}
		}
	}
}

package spritecomp

import (
	"image"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
)

// fakeItem is a host item instance. It implements every optional interface;
// zero fields make the optional parts report "absent".
type fakeItem struct {
	qid       string
	frame     int
	writes    int
	tags      map[string]bool
	color     *color.RGBA
	held      Instance
	preserved string

	tex *ebiten.Image
	src image.Rectangle
}

func newItem(qid string, tags ...string) *fakeItem {
	it := &fakeItem{qid: qid, tags: make(map[string]bool)}
	for _, t := range tags {
		it.tags[t] = true
	}
	return it
}

func (f *fakeItem) SpriteIndex() int { return f.frame }
func (f *fakeItem) SetSpriteIndex(i int) {
	f.frame = i
	f.writes++
}
func (f *fakeItem) QualifiedItemID() string { return f.qid }
func (f *fakeItem) HasContextTag(tag string) bool { return f.tags[tag] }
func (f *fakeItem) HeldObject() Instance { return f.held }
func (f *fakeItem) PreservedItemID() string { return f.preserved }

func (f *fakeItem) ItemColor() (color.RGBA, bool) {
	if f.color == nil {
		return color.RGBA{}, false
	}
	return *f.color, true
}

func (f *fakeItem) DrawTexture() (*ebiten.Image, image.Rectangle) { return f.tex, f.src }
func (f *fakeItem) SetDrawTexture(tex *ebiten.Image, src image.Rectangle) {
	f.tex, f.src = tex, src
}

// plainItem implements only Instance.
type plainItem struct {
	qid   string
	frame int
}

func (p *plainItem) SpriteIndex() int { return p.frame }
func (p *plainItem) SetSpriteIndex(i int) { p.frame = i }
func (p *plainItem) QualifiedItemID() string { return p.qid }
func (p *plainItem) HasContextTag(string) bool { return false }

type fakeResolver struct {
	meta      map[string]ItemMetadata
	samples   map[string]Instance
	metaCalls int
}

func newResolver() *fakeResolver {
	return &fakeResolver{
		meta:    make(map[string]ItemMetadata),
		samples: make(map[string]Instance),
	}
}

func (r *fakeResolver) ResolveMetadata(qid string) (ItemMetadata, bool) {
	r.metaCalls++
	m, ok := r.meta[qid]
	return m, ok
}

func (r *fakeResolver) Sample(qid string) (Instance, bool) {
	inst, ok := r.samples[qid]
	return inst, ok
}

// seqRand returns its values in order, wrapping, reduced modulo n.
type seqRand struct {
	vals []int
	i    int
}

func (s *seqRand) IntN(n int) int {
	if len(s.vals) == 0 {
		return 0
	}
	v := s.vals[s.i%len(s.vals)]
	s.i++
	return v % n
}

// strip builds a horizontal sheet of n frames. Frame k is filled with
// {R: tag, G: k, B: 0, A: 255}.
func strip(n int, fs image.Point, tag uint8) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, n*fs.X, fs.Y))
	for k := 0; k < n; k++ {
		c := color.RGBA{R: tag, G: uint8(k), A: 255}
		for y := 0; y < fs.Y; y++ {
			for x := 0; x < fs.X; x++ {
				img.SetRGBA(k*fs.X+x, y, c)
			}
		}
	}
	return img
}

// frameAt returns the top-left pixel of frame idx.
func frameAt(img *image.RGBA, idx int, fs image.Point) color.RGBA {
	r := FrameRect(idx, img.Rect.Dx(), fs)
	return img.RGBAAt(r.Min.X, r.Min.Y)
}

// frameUniform reports whether every pixel of frame idx equals c.
func frameUniform(img *image.RGBA, idx int, fs image.Point, c color.RGBA) bool {
	r := FrameRect(idx, img.Rect.Dx(), fs)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if img.RGBAAt(x, y) != c {
				return false
			}
		}
	}
	return true
}

func intPtr(v int) *int { return &v }

// atlasOf builds a validated-looking atlas with one rule per index list.
func atlasOf(key string, sourceFPI *int, rules ...[]int) *RuleAtlas {
	a := &RuleAtlas{
		TypeID:               TypeObject,
		LocalID:              "1",
		Key:                  key,
		Contributor:          "test",
		SourceTextures:       TextureList{key + "/tex"},
		Options:              []string{key + "/tex"},
		SourceFramesPerIndex: sourceFPI,
		Enabled:              true,
	}
	for _, idx := range rules {
		a.Rules = append(a.Rules, &SpriteIndexRule{Indices: idx})
	}
	return a
}

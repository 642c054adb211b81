package spritecomp

import (
	"errors"
	"fmt"
	"image"
	"slices"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/sirupsen/logrus"
)

// ErrUnknownAtlas is returned by SetTextureOption for an unregistered
// contributor or atlas key.
var ErrUnknownAtlas = errors.New("spritecomp: unknown atlas")

// ErrUnknownTexture is returned by SetTextureOption for a texture the atlas
// does not offer.
var ErrUnknownTexture = errors.New("spritecomp: texture not offered by atlas")

// Options configures an Engine. Every field is optional.
type Options struct {
	Config *Config
	// Logger defaults to NewLogger(Config.Log) when Config is set, otherwise
	// to a logger that discards output.
	Logger     logrus.FieldLogger
	Rand       Rand
	Conditions ConditionChecker
	Events     EventSink
}

// Resolved describes a built composite.
type Resolved struct {
	Key            ItemTypeKey
	FrameSize      image.Point
	FramesPerIndex int
	// TextureSize is the size of the surface actually allocated, which may
	// exceed the planned size because surfaces never shrink.
	TextureSize image.Point
	Texture     *ebiten.Image
}

// FrameRect returns the rectangle of a composite frame within Texture.
func (r Resolved) FrameRect(frame int) image.Rectangle {
	return FrameRect(frame, r.TextureSize.X, r.FrameSize)
}

type contributor struct {
	id    string
	asset string
	// atlases holds the validated atlases in key order.
	atlases []*RuleAtlas
	// missing holds declared textures that did not exist at validation.
	missing map[string]struct{}
}

type composite struct {
	key       ItemTypeKey
	meta      ItemMetadata
	metaValid bool
	atlases   []*RuleAtlas
	layout    Layout
	pix       *image.RGBA
	tex       compositeTexture
	built     bool
}

func (c *composite) params(maxWidth int) LayoutParams {
	return LayoutParams{
		FrameSize:      c.meta.ResolvedFrameSize(),
		FramesPerIndex: c.meta.ResolvedFramesPerIndex(),
		ReservedFrames: c.meta.ReservedFrames,
		MaxWidth:       maxWidth,
	}
}

type ledgerEntry struct {
	ledger Ledger
	key    ItemTypeKey
	atlas  *RuleAtlas
	rule   *SpriteIndexRule
	// override is false when the winning rule drew "no override".
	override bool
	// slot is the drawn position in rule.ActualIndices, -1 for no override.
	slot int
}

// Engine owns every composite and ledger. It is not safe for concurrent use:
// all calls are expected from the host's update/draw goroutine.
type Engine struct {
	cfg     *Config
	log     logrus.FieldLogger
	assets  AssetProvider
	items   ItemResolver
	events  EventSink
	matcher Matcher
	samples *sampleCache

	contributors []*contributor
	byKey        map[ItemTypeKey][]*RuleAtlas
	composites   map[ItemTypeKey]*composite
	tracker      *tracker
	ledgers      map[Instance]*ledgerEntry
	drawing      map[Instance]struct{}
	configDirty  bool
}

// NewEngine creates an engine over the given collaborators. When assets
// implements InvalidationSource the engine subscribes to its reload events.
func NewEngine(assets AssetProvider, items ItemResolver, opts Options) (*Engine, error) {
	if assets == nil || items == nil {
		return nil, errors.New("spritecomp: NewEngine requires an asset provider and an item resolver")
	}
	cfg := opts.Config
	log := opts.Logger
	if cfg == nil {
		cfg = DefaultConfig()
		if log == nil {
			log = discardLogger()
		}
	} else {
		cfg.applyDefaults()
	}
	if log == nil {
		log = NewLogger(cfg.Log)
	}
	samples, err := newSampleCache(items)
	if err != nil {
		return nil, err
	}
	e := &Engine{
		cfg:        cfg,
		log:        log,
		assets:     assets,
		items:      items,
		events:     opts.Events,
		samples:    samples,
		byKey:      make(map[ItemTypeKey][]*RuleAtlas),
		composites: make(map[ItemTypeKey]*composite),
		tracker:    newTracker(),
		ledgers:    make(map[Instance]*ledgerEntry),
		drawing:    make(map[Instance]struct{}),
	}
	e.matcher = Matcher{Conditions: opts.Conditions, Sample: samples.Sample, Rand: opts.Rand}
	if src, ok := assets.(InvalidationSource); ok {
		src.OnAssetsInvalidated(func(names []string) {
			e.NotifyAssetsInvalidated(names...)
		})
	}
	return e, nil
}

// Close releases every texture and the sample cache.
func (e *Engine) Close() {
	e.Reset()
	e.samples.close()
}

func (e *Engine) emit(ev Event) {
	if e.events != nil {
		e.events.EmitEvent(ev)
	}
}

// --- contributors ---

// RegisterContributor tracks a contributor's rule data asset and validates
// it immediately. Registration order is the layout order and breaks
// precedence ties. Re-registering an id replaces its asset name.
func (e *Engine) RegisterContributor(id, asset string) {
	c := e.contributor(id)
	if c == nil {
		c = &contributor{id: id}
		e.contributors = append(e.contributors, c)
	}
	c.asset = asset
	e.log.WithFields(logrus.Fields{"contributor": id, "texture": asset}).Info("tracking contributor rule data")
	e.revalidate(c)
}

func (e *Engine) contributor(id string) *contributor {
	for _, c := range e.contributors {
		if c.id == id {
			return c
		}
	}
	return nil
}

// revalidate reloads and validates one contributor, then invalidates the
// layout of every item whose atlas set changed.
func (e *Engine) revalidate(c *contributor) {
	log := e.log.WithField("contributor", c.id)
	before := fingerprintsByKey(c.atlases)

	var res ValidationResult
	raw, err := e.assets.LoadRuleAtlases(c.asset)
	if err != nil {
		log.WithError(err).Warn("rule data unavailable")
	} else {
		res = ValidateAtlases(c.id, c.asset, raw, e.assets.Exists, e.cfg.textureOptions(c.id))
	}

	for _, d := range res.Diagnostics {
		log.WithFields(logrus.Fields{"atlas": d.Key, "rule": d.Rule}).Warn(d.Err.Error())
		e.emit(Event{Type: EventAtlasDiscarded, Contributor: c.id, Atlas: d.Key, Message: d.Error()})
	}
	if res.OptionsRewritten {
		for _, a := range res.Atlases {
			e.cfg.setTextureOption(c.id, a.Key, TextureOption{Enabled: a.Enabled, Texture: a.ChosenTexture()})
		}
		e.configDirty = true
	}

	c.atlases = res.Atlases
	c.missing = make(map[string]struct{}, len(res.Missing))
	for _, name := range res.Missing {
		c.missing[name] = struct{}{}
	}
	e.reindex()

	after := fingerprintsByKey(c.atlases)
	keys := make(map[ItemTypeKey]struct{})
	for k := range before {
		keys[k] = struct{}{}
	}
	for k := range after {
		keys[k] = struct{}{}
	}
	for k := range keys {
		if slices.Equal(before[k], after[k]) {
			e.adopt(k)
			continue
		}
		e.invalidateLayout(k, c.id)
	}
}

func fingerprintsByKey(atlases []*RuleAtlas) map[ItemTypeKey][]uint64 {
	out := make(map[ItemTypeKey][]uint64)
	for _, a := range atlases {
		k := a.ItemKey()
		out[k] = append(out[k], a.fingerprint())
	}
	return out
}

// reindex rebuilds the per-item atlas lists in contributor order.
func (e *Engine) reindex() {
	clear(e.byKey)
	for _, c := range e.contributors {
		for _, a := range c.atlases {
			k := a.ItemKey()
			e.byKey[k] = append(e.byKey[k], a)
		}
	}
}

// adopt swaps freshly validated but layout-identical atlases into a built
// composite without invalidating it. Planning the same inputs again yields
// the same placement, so pixels stay valid.
func (e *Engine) adopt(key ItemTypeKey) {
	c := e.composites[key]
	if c == nil || !c.built || !c.metaValid {
		return
	}
	atlases := e.byKey[key]
	PlanLayout(atlases, c.params(e.cfg.MaxWidth))
	c.atlases = slices.Clone(atlases)
}

// --- invalidation ---

func (e *Engine) invalidateLayout(key ItemTypeKey, contributor string) {
	if e.tracker.invalidateLayout(key) {
		e.log.WithFields(logrus.Fields{"item": key.QualifiedID(), "contributor": contributor}).Debug("layout invalidated")
		e.emit(Event{Type: EventLayoutInvalidated, Key: key, Contributor: contributor})
	}
}

func (e *Engine) invalidatePixels(key ItemTypeKey, texture string) {
	if e.tracker.invalidatePixels(key) {
		e.log.WithFields(logrus.Fields{"item": key.QualifiedID(), "texture": texture}).Debug("pixels invalidated")
		e.emit(Event{Type: EventPixelsInvalidated, Key: key})
	}
}

// NotifyAssetsInvalidated handles reloaded assets. A contributor's rule
// data re-runs validation; a texture some atlas was missing re-runs that
// contributor's validation; a texture a composite paints from only
// invalidates that composite's pixels.
func (e *Engine) NotifyAssetsInvalidated(names ...string) {
	for _, name := range names {
		for _, c := range e.contributors {
			_, wasMissing := c.missing[name]
			if c.asset == name || wasMissing {
				e.revalidate(c)
			}
		}
		for key, c := range e.composites {
			if c.metaValid && c.meta.Texture == name {
				e.invalidatePixels(key, name)
				continue
			}
			for _, a := range c.atlases {
				if a.ChosenTexture() == name {
					e.invalidatePixels(key, name)
					break
				}
			}
		}
	}
}

// NotifyItemDefinitionsInvalidated drops resolved metadata for the given
// type identifiers, or for every item when none are given, and schedules a
// full rebuild of the affected composites.
func (e *Engine) NotifyItemDefinitionsInvalidated(typeIDs ...string) {
	for key, c := range e.composites {
		if len(typeIDs) > 0 && !slices.Contains(typeIDs, key.TypeID) {
			continue
		}
		c.metaValid = false
		e.invalidateLayout(key, "")
	}
	e.samples.clear()
}

// MarkDirty schedules a full rebuild of one item.
func (e *Engine) MarkDirty(qualifiedID string) bool {
	key, ok := ParseQualifiedID(qualifiedID)
	if !ok {
		return false
	}
	if c := e.composites[key]; c != nil {
		c.metaValid = false
	}
	e.invalidateLayout(key, "")
	return true
}

// Validity reports the dirty state of one item.
func (e *Engine) Validity(qualifiedID string) Validity {
	key, ok := ParseQualifiedID(qualifiedID)
	if !ok {
		return Validity{}
	}
	if v, ok := e.tracker.states[key]; ok {
		return *v
	}
	return Validity{}
}

// Pending reports whether an item awaits the next Update.
func (e *Engine) Pending(qualifiedID string) bool {
	key, ok := ParseQualifiedID(qualifiedID)
	return ok && e.tracker.isPending(key)
}

// --- tick ---

// Update rebuilds every composite invalidated since the last call, then
// re-picks the ledgers of rebuilt items so their frames stay inside the new
// layout. Call once per host tick.
func (e *Engine) Update() {
	for _, key := range e.tracker.drain() {
		if _, ok := e.composites[key]; !ok {
			// Never resolved; built on first use instead.
			e.tracker.forget(key)
			continue
		}
		if e.rebuild(key) {
			e.repickKey(key)
		}
	}
}

// resolve returns the composite for key, building it synchronously the
// first time. A composite awaiting rebuild keeps serving its last state.
func (e *Engine) resolve(key ItemTypeKey) *composite {
	if c := e.composites[key]; c != nil && c.built {
		return c
	}
	if len(e.byKey[key]) == 0 {
		return nil
	}
	e.tracker.invalidateLayout(key)
	e.tracker.settle(key)
	if !e.rebuild(key) {
		return nil
	}
	return e.composites[key]
}

// rebuild brings one composite up to date. Metadata and textures are all
// resolved before anything is modified, so a failure leaves the previous
// state in place. Reports whether the composite is built afterwards.
func (e *Engine) rebuild(key ItemTypeKey) bool {
	log := e.log.WithField("item", key.QualifiedID())
	atlases := e.byKey[key]
	if len(atlases) == 0 {
		e.drop(key)
		return false
	}

	c := e.composites[key]
	if c == nil {
		c = &composite{key: key}
		e.composites[key] = c
	}
	if !c.metaValid {
		meta, ok := e.items.ResolveMetadata(key.QualifiedID())
		if !ok {
			log.Warn("item metadata unavailable; dropping composite")
			e.drop(key)
			return false
		}
		meta.Key = key
		c.meta = meta
		c.metaValid = true
	}

	src, err := e.loadSources(c, atlases)
	if err != nil {
		log.WithError(err).Warn("composite sources unavailable; keeping previous state")
		return c.built
	}

	state := e.tracker.state(key)
	layout := PlanLayout(atlases, c.params(e.cfg.MaxWidth))
	if !state.PixelsValid || !c.built || !layout.samePixels(c.layout) {
		c.pix = Compose(c.pix, layout, atlases, src)
		c.tex.markDirty()
		log.WithFields(logrus.Fields{
			"atlases": len(atlases),
			"size":    layout.TextureSize,
			"next":    layout.NextFreeIndex,
		}).Debug("composited")
	}
	c.layout = layout
	c.atlases = slices.Clone(atlases)
	c.built = true
	e.tracker.setLayoutValid(key)
	e.tracker.setPixelsValid(key)
	e.emit(Event{Type: EventComposited, Key: key})
	return true
}

// loadSources loads the base texture and the chosen texture of every
// enabled atlas.
func (e *Engine) loadSources(c *composite, atlases []*RuleAtlas) (CompositeSources, error) {
	src := CompositeSources{
		BaseFrame: c.meta.BaseFrame,
		Atlases:   make([]image.Image, len(atlases)),
	}
	if c.meta.ReservedFrames > 0 && c.meta.Texture != "" {
		img, err := e.assets.LoadTexture(c.meta.Texture)
		if err != nil {
			return CompositeSources{}, fmt.Errorf("spritecomp: base texture: %w", err)
		}
		src.Base = img
	}
	for i, a := range atlases {
		if !a.Enabled {
			continue
		}
		img, err := e.assets.LoadTexture(a.ChosenTexture())
		if err != nil {
			return CompositeSources{}, fmt.Errorf("spritecomp: atlas %q: %w", a.Key, err)
		}
		src.Atlases[i] = img
	}
	return src, nil
}

// drop forgets a composite and tears down its ledgers.
func (e *Engine) drop(key ItemTypeKey) {
	if c := e.composites[key]; c != nil {
		c.tex.Dispose()
		delete(e.composites, key)
	}
	e.tracker.forget(key)
	for inst, entry := range e.ledgers {
		if entry.key == key {
			e.release(inst, entry)
		}
	}
}

// --- resolution ---

// TryResolve returns the composite for an item, building it on first use.
// Reports false when the item has no atlases or cannot be built.
func (e *Engine) TryResolve(qualifiedID string) (Resolved, bool) {
	key, ok := ParseQualifiedID(qualifiedID)
	if !ok {
		return Resolved{}, false
	}
	c := e.resolve(key)
	if c == nil {
		return Resolved{}, false
	}
	return e.resolved(c), true
}

func (e *Engine) resolved(c *composite) Resolved {
	return Resolved{
		Key:            c.key,
		FrameSize:      c.layout.FrameSize,
		FramesPerIndex: c.layout.FramesPerIndex,
		TextureSize:    c.pix.Rect.Size(),
		Texture:        c.tex.Image(c.pix),
	}
}

// Surface returns the CPU-side premultiplied pixels of a built composite.
// The image is owned by the engine and changes on rebuild.
func (e *Engine) Surface(qualifiedID string) (*image.RGBA, bool) {
	key, ok := ParseQualifiedID(qualifiedID)
	if !ok {
		return nil, false
	}
	c := e.composites[key]
	if c == nil || !c.built {
		return nil, false
	}
	return c.pix, true
}

// Atlases returns the validated atlases contributing to an item, in layout
// order.
func (e *Engine) Atlases(qualifiedID string) []*RuleAtlas {
	key, ok := ParseQualifiedID(qualifiedID)
	if !ok {
		return nil
	}
	return slices.Clone(e.byKey[key])
}

// --- texture options ---

// SetTextureOption changes the chosen texture and enabled flag of one atlas
// and records the choice in the config. The item's pixels are repainted on
// the next Update.
func (e *Engine) SetTextureOption(contributorID, atlasKey string, opt TextureOption) error {
	c := e.contributor(contributorID)
	if c == nil {
		return fmt.Errorf("%w: contributor %q", ErrUnknownAtlas, contributorID)
	}
	i := slices.IndexFunc(c.atlases, func(a *RuleAtlas) bool { return a.Key == atlasKey })
	if i < 0 {
		return fmt.Errorf("%w: %q in %q", ErrUnknownAtlas, atlasKey, contributorID)
	}
	a := c.atlases[i]
	chosen := a.Chosen
	if opt.Texture != "" {
		chosen = slices.Index(a.Options, opt.Texture)
		if chosen < 0 {
			return fmt.Errorf("%w: %q", ErrUnknownTexture, opt.Texture)
		}
	}
	a.Chosen = chosen
	a.Enabled = opt.Enabled
	e.cfg.setTextureOption(contributorID, atlasKey, TextureOption{Enabled: a.Enabled, Texture: a.ChosenTexture()})
	e.configDirty = true
	e.invalidatePixels(a.ItemKey(), a.ChosenTexture())
	return nil
}

// Config returns the live configuration, including texture choices.
func (e *Engine) Config() *Config { return e.cfg }

// ConfigDirty reports whether texture choices changed since the config was
// last saved.
func (e *Engine) ConfigDirty() bool { return e.configDirty }

// SaveConfig writes the configuration to path and clears the dirty flag.
func (e *Engine) SaveConfig(path string) error {
	if err := e.cfg.WriteConfig(path); err != nil {
		return err
	}
	e.configDirty = false
	return nil
}

// --- session ---

// Reset drops every composite and ledger without touching instances, e.g.
// when returning to the title screen. Contributors stay registered.
func (e *Engine) Reset() {
	for _, c := range e.composites {
		c.tex.Dispose()
	}
	clear(e.composites)
	clear(e.ledgers)
	clear(e.drawing)
	e.tracker.reset()
}

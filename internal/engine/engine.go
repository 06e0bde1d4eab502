// Package engine ties the pricing pipeline together: it owns the current
// selection state, recomputes the whole draft -> discount -> projection chain
// on every input event and pushes the result to the renderer and subscribers.
// Recomputing from scratch instead of patching keeps every display region
// consistent with a single discount result.
package engine

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/solbruket/storefront-engine/internal/cartclient"
	"github.com/solbruket/storefront-engine/internal/catalog"
	"github.com/solbruket/storefront-engine/internal/display"
	"github.com/solbruket/storefront-engine/internal/greentech"
	"github.com/solbruket/storefront-engine/internal/money"
	"github.com/solbruket/storefront-engine/internal/pricing"
	"github.com/solbruket/storefront-engine/internal/session"
)

// ErrBusy is returned while a previous add-to-cart or buy-now request has not
// settled. The guard prevents duplicate cart lines from double-clicks.
var ErrBusy = errors.New("engine: request already in flight")

// DiscountAttribute is the cart attribute mirroring the selected tier so the
// backend can revalidate the deduction at checkout.
const DiscountAttribute = "green_deductions"

// Renderer applies display updates to the page. It is the only side-effecting
// consumer of the pipeline.
type Renderer interface {
	Render(updates []display.Update)
}

// CartGateway is the slice of the cart client the engine needs.
type CartGateway interface {
	Add(ctx context.Context, items []cartclient.AddItem) error
	UpdateAttributes(ctx context.Context, attrs map[string]string) error
}

// Snapshot is one fully recomputed pricing state.
type Snapshot struct {
	Variant  catalog.Variant
	Quantity int
	Draft    pricing.OrderDraft
	Discount greentech.Result
	Code     greentech.Code
	Updates  []display.Update
}

// Config wires an Engine.
type Config struct {
	Catalog  []catalog.Variant
	RateAttr string // raw data-green-rate attribute; falls back to the default rate
	Logger   zerolog.Logger
	Renderer Renderer
	Cart     CartGateway
	Sessions session.Store

	// InitialSelection seeds the option selection, usually the first variant's
	// option values as rendered server-side.
	InitialSelection catalog.Selection

	// AttributeTimeout bounds the fire-and-forget attribute sync.
	AttributeTimeout time.Duration
}

// Engine owns the selection state and recomputation pipeline.
type Engine struct {
	mu sync.Mutex

	log      zerolog.Logger
	catalog  []catalog.Variant
	rateBps  int64
	renderer Renderer
	cart     CartGateway
	sessions session.Store
	attrTTL  time.Duration

	selection   catalog.Selection
	quantity    int
	upsellOrder []string
	upsells     map[string]catalog.Variant
	installVar  *catalog.Variant
	greensel    greentech.Selection

	current    Snapshot
	hasCurrent bool
	subs       []func(Snapshot)

	addBusy atomic.Bool
	buyBusy atomic.Bool
}

// New builds an engine and performs the initial recompute.
func New(cfg Config) *Engine {
	rateBps, ok := money.ParseRateBps(cfg.RateAttr)
	if !ok {
		rateBps = greentech.DefaultRateBps
		if cfg.RateAttr != "" {
			cfg.Logger.Warn().Str("attr", cfg.RateAttr).Msg("unparseable green rate attribute, using default")
		}
	}
	ttl := cfg.AttributeTimeout
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	sel := catalog.Selection{}
	for pos, value := range cfg.InitialSelection {
		sel[pos] = value
	}
	e := &Engine{
		log:       cfg.Logger,
		catalog:   cfg.Catalog,
		rateBps:   rateBps,
		renderer:  cfg.Renderer,
		cart:      cfg.Cart,
		sessions:  cfg.Sessions,
		attrTTL:   ttl,
		selection: sel,
		quantity:  1,
		upsells:   make(map[string]catalog.Variant),
	}
	e.recompute()
	return e
}

// Subscribe registers a callback invoked after every recompute. This replaces
// the theme's habit of wrapping global window functions: both the quantity
// control and the deduction widget observe the same channel.
func (e *Engine) Subscribe(fn func(Snapshot)) {
	if fn == nil {
		return
	}
	e.mu.Lock()
	e.subs = append(e.subs, fn)
	e.mu.Unlock()
}

// Current returns the latest snapshot, if a variant has ever resolved.
func (e *Engine) Current() (Snapshot, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current, e.hasCurrent
}

// SelectOption records an option choice and recomputes.
func (e *Engine) SelectOption(position int, value string) {
	e.mu.Lock()
	e.selection[position] = value
	e.mu.Unlock()
	e.recompute()
}

// SetQuantity sets the main line quantity, floored at one.
func (e *Engine) SetQuantity(qty int) {
	if qty < 1 {
		qty = 1
	}
	e.mu.Lock()
	e.quantity = qty
	e.mu.Unlock()
	e.recompute()
}

// AdjustQuantity applies a +/- delta from the quantity stepper.
func (e *Engine) AdjustQuantity(delta int) {
	e.mu.Lock()
	qty := e.quantity + delta
	if qty < 1 {
		qty = 1
	}
	e.quantity = qty
	e.mu.Unlock()
	e.recompute()
}

// Quantity returns the current main line quantity.
func (e *Engine) Quantity() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.quantity
}

// ToggleUpsell adds or removes an upsell line. Re-toggling with a different
// variant of the same upsell replaces the priced line rather than stacking.
func (e *Engine) ToggleUpsell(v catalog.Variant, on bool) {
	e.mu.Lock()
	if on {
		if _, exists := e.upsells[v.ID]; !exists {
			e.upsellOrder = append(e.upsellOrder, v.ID)
		}
		e.upsells[v.ID] = v
	} else {
		delete(e.upsells, v.ID)
		for i, id := range e.upsellOrder {
			if id == v.ID {
				e.upsellOrder = append(e.upsellOrder[:i], e.upsellOrder[i+1:]...)
				break
			}
		}
	}
	e.mu.Unlock()
	e.recompute()
}

// SetInstallation toggles the installation line. Toggling it off cascades into
// clearing any selected deduction tier.
func (e *Engine) SetInstallation(v catalog.Variant, on bool) {
	e.mu.Lock()
	if on {
		installCopy := v
		e.installVar = &installCopy
	} else {
		e.installVar = nil
	}
	cleared := e.greensel.SetInstallation(on)
	e.mu.Unlock()

	if cleared {
		e.mirrorDiscountCode(greentech.CodeNone)
		e.syncDiscountAttribute(greentech.CodeNone)
	}
	e.recompute()
}

// SelectDiscount chooses a deduction tier. It reports whether the selection
// was accepted; tiers require the installation prerequisite.
func (e *Engine) SelectDiscount(code greentech.Code) bool {
	e.mu.Lock()
	ok := e.greensel.Select(code)
	active := e.greensel.Code()
	e.mu.Unlock()
	if !ok {
		return false
	}
	e.mirrorDiscountCode(active)
	e.syncDiscountAttribute(active)
	e.recompute()
	return true
}

// DiscountCode returns the active tier.
func (e *Engine) DiscountCode() greentech.Code {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.greensel.Code()
}

// AddToCart submits the current selection to the cart service. A second call
// while the first is in flight returns ErrBusy without touching the network.
func (e *Engine) AddToCart(ctx context.Context) error {
	if !e.addBusy.CompareAndSwap(false, true) {
		return ErrBusy
	}
	defer e.addBusy.Store(false)

	items, err := e.buildAddItems()
	if err != nil {
		return err
	}
	if err := e.cart.Add(ctx, items); err != nil {
		e.log.Error().Err(err).Msg("add to cart failed")
		return err
	}
	return nil
}

// BuyNow adds the selection to the cart and returns the checkout URL,
// including the discount query parameter when a tier is active.
func (e *Engine) BuyNow(ctx context.Context) (string, error) {
	if !e.buyBusy.CompareAndSwap(false, true) {
		return "", ErrBusy
	}
	defer e.buyBusy.Store(false)

	items, err := e.buildAddItems()
	if err != nil {
		return "", err
	}
	if err := e.cart.Add(ctx, items); err != nil {
		e.log.Error().Err(err).Msg("buy now failed")
		return "", err
	}
	code := e.DiscountCode()
	if code != greentech.CodeNone {
		return "/checkout?discount=" + string(code), nil
	}
	return "/checkout", nil
}

// ErrorResetDelay returns how long the UI should hold the inline error state
// before reverting the control. Rate limiting gets the longer delay.
func ErrorResetDelay(err error) time.Duration {
	if errors.Is(err, cartclient.ErrRateLimited) {
		return 3 * time.Second
	}
	return 2 * time.Second
}

func (e *Engine) buildAddItems() ([]cartclient.AddItem, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.hasCurrent {
		return nil, catalog.ErrNoVariant
	}
	main := cartclient.AddItem{ID: e.current.Variant.ID, Quantity: e.quantity}
	if e.greensel.Enabled() {
		res := e.current.Discount
		main.Properties = map[string]string{
			"Grön teknik":          "Ja",
			"Grön teknik - antal":  strconv.Itoa(e.greensel.Code().Beneficiaries()),
			"Grön teknik - avdrag": money.Format(res.Deduction),
			"Pris efter avdrag":    money.Format(res.Final),
		}
	}
	items := []cartclient.AddItem{main}
	for _, id := range e.upsellOrder {
		items = append(items, cartclient.AddItem{ID: id, Quantity: 1})
	}
	if e.installVar != nil {
		items = append(items, cartclient.AddItem{ID: e.installVar.ID, Quantity: 1})
	}
	return items, nil
}

// recompute resolves the variant and rebuilds the entire priced state. A
// resolution miss keeps the previous snapshot visible (fail-soft).
func (e *Engine) recompute() {
	e.mu.Lock()
	variant, err := catalog.Resolve(e.catalog, e.selection)
	if err != nil {
		e.mu.Unlock()
		e.log.Warn().Err(err).Msg("variant resolution failed, keeping last price state")
		return
	}

	upsells := make([]catalog.Variant, 0, len(e.upsellOrder))
	for _, id := range e.upsellOrder {
		upsells = append(upsells, e.upsells[id])
	}
	draft := pricing.Build(variant, e.quantity, upsells, e.installVar)
	code := e.greensel.Code()
	res := greentech.Apply(draft.Subtotal, greentech.PolicyFor(code, e.rateBps))
	updates := display.Project(variant, draft, res, code != greentech.CodeNone)

	snap := Snapshot{
		Variant:  variant,
		Quantity: e.quantity,
		Draft:    draft,
		Discount: res,
		Code:     code,
		Updates:  updates,
	}
	e.current = snap
	e.hasCurrent = true
	subs := make([]func(Snapshot), len(e.subs))
	copy(subs, e.subs)
	renderer := e.renderer
	e.mu.Unlock()

	if renderer != nil {
		renderer.Render(snap.Updates)
	}
	for _, fn := range subs {
		fn(snap)
	}
}

func (e *Engine) mirrorDiscountCode(code greentech.Code) {
	if e.sessions == nil {
		return
	}
	if code == greentech.CodeNone {
		e.sessions.Delete(session.DiscountCodeKey)
		return
	}
	e.sessions.Set(session.DiscountCodeKey, string(code))
}

// syncDiscountAttribute mirrors the tier into a cart attribute so checkout can
// revalidate it. Best-effort: failures are logged and never block the local
// price display.
func (e *Engine) syncDiscountAttribute(code greentech.Code) {
	if e.cart == nil {
		return
	}
	value := ""
	if n := code.Beneficiaries(); n > 0 {
		value = strconv.Itoa(n)
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), e.attrTTL)
		defer cancel()
		if err := e.cart.UpdateAttributes(ctx, map[string]string{DiscountAttribute: value}); err != nil {
			e.log.Debug().Err(err).Str("attribute", DiscountAttribute).Msg("discount attribute sync failed")
		}
	}()
}

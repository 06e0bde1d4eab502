package cartapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/solbruket/storefront-engine/internal/common"
	"github.com/solbruket/storefront-engine/internal/money"
)

// PricedVariant is what the simulator knows about a sellable variant.
type PricedVariant struct {
	Title        string
	ProductTitle string
	VariantTitle string
	UnitPrice    money.Money
	Image        string
}

// PriceBook maps variant ids to their sellable data.
type PriceBook map[string]PricedVariant

// Handler serves the cart endpoints.
type Handler struct {
	Store  Store
	Prices PriceBook
	Logger zerolog.Logger
}

// SessionCookie names the cookie carrying the cart session token.
const SessionCookie = "cart_session"

// Register mounts the cart routes on the router.
func (h Handler) Register(r chi.Router) {
	r.Get("/cart.js", h.GetCart)
	r.Post("/cart/add.js", h.AddItems)
	r.Post("/cart/change.js", h.ChangeLine)
	r.Post("/cart/update.js", h.UpdateCart)
	r.Post("/cart/clear.js", h.ClearCart)
}

func (h Handler) session(w http.ResponseWriter, r *http.Request) string {
	if cookie, err := r.Cookie(SessionCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	token := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return token
}

// GetCart returns the current cart snapshot.
func (h Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	token := h.session(w, r)
	cart, err := h.Store.Load(r.Context(), token)
	if err != nil {
		h.fail(w, err)
		return
	}
	common.JSON(w, http.StatusOK, cart)
}

type addItemPayload struct {
	ID         string            `json:"id"`
	Quantity   int               `json:"quantity"`
	Properties map[string]string `json:"properties,omitempty"`
}

type addPayload struct {
	addItemPayload
	Items []addItemPayload `json:"items"`
}

// AddItems accepts both the single-item and the multi-item add payloads.
func (h Handler) AddItems(w http.ResponseWriter, r *http.Request) {
	var payload addPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.PlatformError(w, http.StatusBadRequest, "Ogiltig förfrågan.")
		return
	}
	items := payload.Items
	if len(items) == 0 {
		if payload.ID == "" {
			common.PlatformError(w, http.StatusBadRequest, "Ogiltig förfrågan.")
			return
		}
		items = []addItemPayload{payload.addItemPayload}
	}

	for _, item := range items {
		if _, ok := h.Prices[item.ID]; !ok {
			common.PlatformError(w, http.StatusUnprocessableEntity, "Produkten kunde inte läggas i varukorgen.")
			return
		}
	}

	token := h.session(w, r)
	cart, err := h.Store.Load(r.Context(), token)
	if err != nil {
		h.fail(w, err)
		return
	}

	for _, item := range items {
		qty := item.Quantity
		if qty <= 0 {
			qty = 1
		}
		variant := h.Prices[item.ID]
		if line := findLine(cart, item.ID, item.Properties); line != nil {
			line.Quantity += qty
			continue
		}
		cart.Items = append(cart.Items, Line{
			Key:          uuid.NewString(),
			VariantID:    item.ID,
			Image:        variant.Image,
			Title:        variant.Title,
			ProductTitle: variant.ProductTitle,
			VariantTitle: variant.VariantTitle,
			UnitPrice:    variant.UnitPrice,
			Quantity:     qty,
			Properties:   item.Properties,
		})
	}

	if err := h.Store.Save(r.Context(), token, cart); err != nil {
		h.fail(w, err)
		return
	}
	common.JSON(w, http.StatusOK, cart)
}

type changePayload struct {
	ID       string `json:"id"`
	Quantity *int   `json:"quantity"`
}

// ChangeLine sets the quantity of an existing line. Quantity zero removes it.
func (h Handler) ChangeLine(w http.ResponseWriter, r *http.Request) {
	var payload changePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.ID == "" || payload.Quantity == nil {
		common.PlatformError(w, http.StatusBadRequest, "Ogiltig förfrågan.")
		return
	}

	token := h.session(w, r)
	cart, err := h.Store.Load(r.Context(), token)
	if err != nil {
		h.fail(w, err)
		return
	}

	idx := -1
	for i := range cart.Items {
		if cart.Items[i].Key == payload.ID {
			idx = i
			break
		}
	}
	if idx < 0 {
		common.PlatformError(w, http.StatusNotFound, "Raden finns inte i varukorgen.")
		return
	}

	if *payload.Quantity <= 0 {
		cart.Items = append(cart.Items[:idx], cart.Items[idx+1:]...)
	} else {
		cart.Items[idx].Quantity = *payload.Quantity
	}

	if err := h.Store.Save(r.Context(), token, cart); err != nil {
		h.fail(w, err)
		return
	}
	common.JSON(w, http.StatusOK, cart)
}

type updatePayload struct {
	Attributes map[string]string `json:"attributes"`
}

// UpdateCart merges cart-level attributes. An empty string value removes the
// attribute, matching platform behaviour.
func (h Handler) UpdateCart(w http.ResponseWriter, r *http.Request) {
	var payload updatePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.PlatformError(w, http.StatusBadRequest, "Ogiltig förfrågan.")
		return
	}

	token := h.session(w, r)
	cart, err := h.Store.Load(r.Context(), token)
	if err != nil {
		h.fail(w, err)
		return
	}

	for key, value := range payload.Attributes {
		if value == "" {
			delete(cart.Attributes, key)
			continue
		}
		if cart.Attributes == nil {
			cart.Attributes = make(map[string]string)
		}
		cart.Attributes[key] = value
	}

	if err := h.Store.Save(r.Context(), token, cart); err != nil {
		h.fail(w, err)
		return
	}
	common.JSON(w, http.StatusOK, cart)
}

// ClearCart removes every line but keeps cart attributes.
func (h Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	token := h.session(w, r)
	cart, err := h.Store.Load(r.Context(), token)
	if err != nil {
		h.fail(w, err)
		return
	}
	cart.Items = []Line{}
	if err := h.Store.Save(r.Context(), token, cart); err != nil {
		h.fail(w, err)
		return
	}
	common.JSON(w, http.StatusOK, cart)
}

func (h Handler) fail(w http.ResponseWriter, err error) {
	h.Logger.Error().Err(err).Msg("cart operation failed")
	common.PlatformError(w, http.StatusInternalServerError, "Något gick fel. Försök igen senare.")
}

func findLine(cart *Cart, variantID string, props map[string]string) *Line {
	for i := range cart.Items {
		line := &cart.Items[i]
		if line.VariantID == variantID && samePropertySet(line.Properties, props) {
			return line
		}
	}
	return nil
}

func samePropertySet(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for k, av := range a {
		if bv, ok := b[k]; !ok || av != bv {
			return false
		}
	}
	return true
}

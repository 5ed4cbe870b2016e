package v1

import (
	"net/http"

	"github.com/prasnshabrainerhub/pizza-ordering-system/internal/models"
)

// ListPizzasResponse represents the catalog list response
type ListPizzasResponse struct {
	Pizzas []models.Pizza `json:"pizzas"`
	Total  int            `json:"total"`
}

// listPizzas handles GET /api/v1/pizzas
func (rr *Routes) listPizzas(w http.ResponseWriter, r *http.Request) {
	pizzas, err := rr.deps.Catalog.ListPizzas(r.Context())
	if err != nil {
		rr.writeServiceError(w, err)
		return
	}
	rr.writeJSONResponse(w, http.StatusOK, ListPizzasResponse{Pizzas: pizzas, Total: len(pizzas)})
}

// getPizza handles GET /api/v1/pizzas/{id}
func (rr *Routes) getPizza(w http.ResponseWriter, r *http.Request) {
	id, err := urlUUID(r)
	if err != nil {
		rr.writeErrorResponse(w, "invalid pizza id", http.StatusBadRequest)
		return
	}
	pizza, err := rr.deps.Catalog.GetPizza(r.Context(), id)
	if err != nil {
		rr.writeServiceError(w, err)
		return
	}
	rr.writeJSONResponse(w, http.StatusOK, pizza)
}

// createPizza handles POST /api/v1/pizzas
func (rr *Routes) createPizza(w http.ResponseWriter, r *http.Request) {
	var pizza models.Pizza
	if err := decodeJSON(r, &pizza); err != nil {
		rr.writeErrorResponse(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if pizza.Name == "" {
		rr.writeErrorResponse(w, "pizza name is required", http.StatusBadRequest)
		return
	}
	if pizza.BasePrice < 0 {
		rr.writeErrorResponse(w, "base price must not be negative", http.StatusBadRequest)
		return
	}
	if err := rr.deps.Catalog.CreatePizza(r.Context(), &pizza); err != nil {
		rr.writeServiceError(w, err)
		return
	}
	rr.writeJSONResponse(w, http.StatusCreated, pizza)
}

// updatePizza handles PUT /api/v1/pizzas/{id}
func (rr *Routes) updatePizza(w http.ResponseWriter, r *http.Request) {
	id, err := urlUUID(r)
	if err != nil {
		rr.writeErrorResponse(w, "invalid pizza id", http.StatusBadRequest)
		return
	}
	var pizza models.Pizza
	if err := decodeJSON(r, &pizza); err != nil {
		rr.writeErrorResponse(w, "invalid request body", http.StatusBadRequest)
		return
	}
	pizza.ID = id
	if err := rr.deps.Catalog.UpdatePizza(r.Context(), &pizza); err != nil {
		rr.writeServiceError(w, err)
		return
	}
	rr.writeJSONResponse(w, http.StatusOK, pizza)
}

// deletePizza handles DELETE /api/v1/pizzas/{id}
func (rr *Routes) deletePizza(w http.ResponseWriter, r *http.Request) {
	id, err := urlUUID(r)
	if err != nil {
		rr.writeErrorResponse(w, "invalid pizza id", http.StatusBadRequest)
		return
	}
	if err := rr.deps.Catalog.DeletePizza(r.Context(), id); err != nil {
		rr.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// listToppings handles GET /api/v1/toppings
func (rr *Routes) listToppings(w http.ResponseWriter, r *http.Request) {
	toppings, err := rr.deps.Catalog.ListToppings(r.Context())
	if err != nil {
		rr.writeServiceError(w, err)
		return
	}
	rr.writeJSONResponse(w, http.StatusOK, toppings)
}

// createTopping handles POST /api/v1/toppings
func (rr *Routes) createTopping(w http.ResponseWriter, r *http.Request) {
	var topping models.Topping
	if err := decodeJSON(r, &topping); err != nil {
		rr.writeErrorResponse(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if topping.Name == "" {
		rr.writeErrorResponse(w, "topping name is required", http.StatusBadRequest)
		return
	}
	if err := rr.deps.Catalog.CreateTopping(r.Context(), &topping); err != nil {
		rr.writeServiceError(w, err)
		return
	}
	rr.writeJSONResponse(w, http.StatusCreated, topping)
}

// updateTopping handles PUT /api/v1/toppings/{id}
func (rr *Routes) updateTopping(w http.ResponseWriter, r *http.Request) {
	id, err := urlUUID(r)
	if err != nil {
		rr.writeErrorResponse(w, "invalid topping id", http.StatusBadRequest)
		return
	}
	var topping models.Topping
	if err := decodeJSON(r, &topping); err != nil {
		rr.writeErrorResponse(w, "invalid request body", http.StatusBadRequest)
		return
	}
	topping.ID = id
	if err := rr.deps.Catalog.UpdateTopping(r.Context(), &topping); err != nil {
		rr.writeServiceError(w, err)
		return
	}
	rr.writeJSONResponse(w, http.StatusOK, topping)
}

// deleteTopping handles DELETE /api/v1/toppings/{id}
func (rr *Routes) deleteTopping(w http.ResponseWriter, r *http.Request) {
	id, err := urlUUID(r)
	if err != nil {
		rr.writeErrorResponse(w, "invalid topping id", http.StatusBadRequest)
		return
	}
	if err := rr.deps.Catalog.DeleteTopping(r.Context(), id); err != nil {
		rr.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

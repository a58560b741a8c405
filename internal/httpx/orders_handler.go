package httpx

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"

	"shopadmin/internal/apperr"
	"shopadmin/internal/auth"
	kafkax "shopadmin/internal/kafka"
	"shopadmin/internal/orders"
	"shopadmin/internal/redisx"
)

type OrdersHandler struct {
	Svc *orders.Service

	Created       *kafkax.Producer
	Cancelled     *kafkax.Producer
	StatusChanged *kafkax.Producer

	Cache   *redisx.OrderCache
	Service string
}

type createOrderReq struct {
	Items []orders.ItemInput `json:"items"`
}

func requester(r *http.Request) orders.Requester {
	claims, _ := auth.ClaimsFrom(r.Context())
	return orders.Requester{UserID: claims.UserID(), Admin: claims.IsAdmin()}
}

func (h *OrdersHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createOrderReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid json")
		return
	}
	if len(req.Items) == 0 {
		badRequest(w, "items must not be empty")
		return
	}

	o, err := h.Svc.Create(r.Context(), requester(r).UserID, req.Items)
	if err != nil {
		writeErr(w, err)
		return
	}

	h.cachePut(r, o)
	h.publish(h.Created, orders.EventOrderCreated, o.ID, middleware.GetReqID(r.Context()),
		orders.OrderCreatedPayload{
			OrderID: o.ID,
			UserID:  o.UserID,
			Items:   o.EventItems(),
			Total:   o.Total.String(),
		})

	writeJSON(w, http.StatusCreated, o)
}

func (h *OrdersHandler) get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	req := requester(r)

	if h.Cache != nil {
		var cached orders.Order
		if h.Cache.Get(r.Context(), id, &cached) {
			if !req.Admin && cached.UserID != req.UserID {
				writeErr(w, apperr.New(apperr.Forbidden, "you do not have access to this order"))
				return
			}
			writeJSON(w, http.StatusOK, cached)
			return
		}
	}

	o, err := h.Svc.Get(r.Context(), id, req)
	if err != nil {
		writeErr(w, err)
		return
	}
	h.cachePut(r, o)
	writeJSON(w, http.StatusOK, o)
}

func (h *OrdersHandler) list(w http.ResponseWriter, r *http.Request) {
	out, err := h.Svc.List(r.Context(), requester(r))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

type updateStatusReq struct {
	Status orders.Status `json:"status"`
}

func (h *OrdersHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid json")
		return
	}
	id := chi.URLParam(r, "id")

	before, err := h.Svc.Get(r.Context(), id, requester(r))
	if err != nil {
		writeErr(w, err)
		return
	}
	o, err := h.Svc.UpdateStatus(r.Context(), id, requester(r), req.Status)
	if err != nil {
		writeErr(w, err)
		return
	}

	h.cacheInvalidate(r, id)
	h.publish(h.StatusChanged, orders.EventOrderStatusChanged, id, middleware.GetReqID(r.Context()),
		orders.OrderStatusChangedPayload{
			OrderID: id,
			From:    string(before.Status),
			To:      string(o.Status),
		})

	writeJSON(w, http.StatusOK, o)
}

func (h *OrdersHandler) cancel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	snap, err := h.Svc.Cancel(r.Context(), id, requester(r))
	if err != nil {
		writeErr(w, err)
		return
	}

	h.cacheInvalidate(r, id)
	mode := "delete"
	if snap.Status == orders.StatusCancelled {
		mode = "mark"
	}
	h.publish(h.Cancelled, orders.EventOrderCancelled, id, middleware.GetReqID(r.Context()),
		orders.OrderCancelledPayload{
			OrderID: id,
			UserID:  snap.UserID,
			Items:   snap.EventItems(),
			Mode:    mode,
		})

	writeJSON(w, http.StatusOK, snap)
}

func (h *OrdersHandler) cachePut(r *http.Request, o *orders.Order) {
	if h.Cache != nil {
		h.Cache.Put(r.Context(), o.ID, o)
	}
}

func (h *OrdersHandler) cacheInvalidate(r *http.Request, id string) {
	if h.Cache != nil {
		h.Cache.Invalidate(r.Context(), id)
	}
}

func (h *OrdersHandler) publish(p *kafkax.Producer, eventType, orderID, traceID string, payload any) {
	if p == nil {
		return
	}
	ev := orders.Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      h.Service,
		TraceID:       traceID,
		CorrelationID: orderID,
		Payload:       kafkax.MustMarshal(payload),
	}
	p.Publish(orders.PartitionKey(orderID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(eventType)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-faster/errors"

	"github.com/iota-uz/orgadmin/modules/orgs/domain"
)

// Resource maps one entity collection of the orgs API, e.g. /direcciones/.
type Resource[T any] struct {
	client *Client
	name   string
}

func NewResource[T any](client *Client, name string) *Resource[T] {
	return &Resource[T]{client: client, name: name}
}

func (r *Resource[T]) Name() string { return r.name }

func (r *Resource[T]) collectionPath() string {
	return "/" + r.name + "/"
}

func (r *Resource[T]) itemPath(id int, action string) string {
	p := fmt.Sprintf("/%s/%d/", r.name, id)
	if action != "" {
		p += action + "/"
	}
	return p
}

// List fetches one page. A pageSize of zero leaves the server default in place.
func (r *Resource[T]) List(ctx context.Context, filter domain.Filter, page, pageSize int) (domain.Page[T], error) {
	query := url.Values{}
	if filter != nil {
		query = filter.Values()
	}
	if page > 0 {
		query.Set("page", strconv.Itoa(page))
	}
	if pageSize > 0 {
		query.Set("page_size", strconv.Itoa(pageSize))
	}

	var raw json.RawMessage
	if err := r.client.doJSON(ctx, r.name+".list", http.MethodGet, r.collectionPath(), query, nil, &raw); err != nil {
		return domain.Page[T]{}, errors.Wrapf(err, "list %s", r.name)
	}
	p, err := decodePage[T](raw)
	if err != nil {
		return domain.Page[T]{}, errors.Wrapf(err, "decode %s page", r.name)
	}
	return p, nil
}

func (r *Resource[T]) Create(ctx context.Context, payload any) (T, error) {
	var out T
	if err := r.client.doJSON(ctx, r.name+".create", http.MethodPost, r.collectionPath(), nil, payload, &out); err != nil {
		return out, errors.Wrapf(err, "create %s", r.name)
	}
	return out, nil
}

func (r *Resource[T]) ToggleEstado(ctx context.Context, id int) (T, error) {
	var out T
	err := r.client.doJSON(ctx, r.name+".toggle", http.MethodPost, r.itemPath(id, "toggle-estado"), nil, struct{}{}, &out)
	if err != nil {
		return out, errors.Wrapf(err, "toggle %s %d", r.name, id)
	}
	return out, nil
}

// Update sends a partial update.
func (r *Resource[T]) Update(ctx context.Context, id int, payload any) (T, error) {
	var out T
	if err := r.client.doJSON(ctx, r.name+".update", http.MethodPatch, r.itemPath(id, ""), nil, payload, &out); err != nil {
		return out, errors.Wrapf(err, "update %s %d", r.name, id)
	}
	return out, nil
}

func (r *Resource[T]) Delete(ctx context.Context, id int) error {
	if err := r.client.doJSON(ctx, r.name+".delete", http.MethodDelete, r.itemPath(id, ""), nil, nil, nil); err != nil {
		return errors.Wrapf(err, "delete %s %d", r.name, id)
	}
	return nil
}

type envelope[T any] struct {
	Count    json.RawMessage `json:"count"`
	Next     *string         `json:"next"`
	Previous *string         `json:"previous"`
	Results  []T             `json:"results"`
}

// decodePage accepts a plain JSON array or a {count, next, previous, results}
// envelope. A missing or non-numeric count falls back to the number of items.
func decodePage[T any](raw json.RawMessage) (domain.Page[T], error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return domain.Page[T]{Items: []T{}}, nil
	}
	if trimmed[0] == '[' {
		var items []T
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return domain.Page[T]{}, err
		}
		if items == nil {
			items = []T{}
		}
		return domain.Page[T]{Items: items, Count: len(items)}, nil
	}

	var env envelope[T]
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return domain.Page[T]{}, err
	}
	items := env.Results
	if items == nil {
		items = []T{}
	}
	count := len(items)
	var n int
	if len(env.Count) > 0 && !bytes.Equal(env.Count, []byte("null")) && json.Unmarshal(env.Count, &n) == nil {
		count = n
	}
	return domain.Page[T]{Items: items, Count: count}, nil
}

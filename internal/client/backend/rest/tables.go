package rest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"

	"estatehub/internal/client/backend"
	"estatehub/internal/core/domain"
)

type profilesAPI struct{ c *Client }

func (p *profilesAPI) Get(ctx context.Context, userID string) (*domain.Profile, error) {
	var profile domain.Profile
	err := p.c.do(ctx, request{
		method: http.MethodGet,
		path:   "/profiles/" + url.PathEscape(userID),
		authed: true,
	}, &profile)
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (p *profilesAPI) Insert(ctx context.Context, profile *domain.Profile) (*domain.Profile, error) {
	var created domain.Profile
	err := p.c.do(ctx, request{
		method: http.MethodPost,
		path:   "/profiles",
		body: map[string]interface{}{
			"user_id":   profile.UserID,
			"email":     profile.Email,
			"full_name": profile.FullName,
			"phone":     profile.Phone,
			"address":   profile.Address,
			"bio":       profile.Bio,
			"role":      profile.Role,
		},
		authed: true,
	}, &created)
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (p *profilesAPI) UpdateOwn(ctx context.Context, update backend.ProfileUpdate) (*domain.Profile, error) {
	var profile domain.Profile
	err := p.c.do(ctx, request{
		method: http.MethodPut,
		path:   "/profiles/me",
		body:   update,
		authed: true,
	}, &profile)
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (p *profilesAPI) List(ctx context.Context, page, limit int) ([]*domain.Profile, error) {
	q := url.Values{}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var out struct {
		Profiles []*domain.Profile `json:"profiles"`
	}
	err := p.c.do(ctx, request{method: http.MethodGet, path: "/profiles", query: q, authed: true}, &out)
	if err != nil {
		return nil, err
	}
	return out.Profiles, nil
}

func (p *profilesAPI) SetRole(ctx context.Context, userID string, role domain.Role) (*domain.Profile, error) {
	var profile domain.Profile
	err := p.c.do(ctx, request{
		method: http.MethodPut,
		path:   "/profiles/" + url.PathEscape(userID) + "/role",
		body:   map[string]domain.Role{"role": role},
		authed: true,
	}, &profile)
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

type listingsAPI struct{ c *Client }

// filterQuery encodes f the way the listings endpoint parses it
func filterQuery(f domain.ListingFilter) url.Values {
	q := url.Values{}
	set := func(k, v string) {
		if v != "" {
			q.Set(k, v)
		}
	}
	set("category", string(f.Category))
	set("location", f.Location)
	set("q", f.Search)
	set("owner_id", f.OwnerID)
	set("sort", string(f.Sort))
	if f.MinBeds > 0 {
		q.Set("min_beds", strconv.Itoa(f.MinBeds))
	}
	if f.MinPrice != nil {
		q.Set("min_price", strconv.FormatFloat(*f.MinPrice, 'f', -1, 64))
	}
	if f.MaxPrice != nil {
		q.Set("max_price", strconv.FormatFloat(*f.MaxPrice, 'f', -1, 64))
	}
	if f.Popular != nil {
		q.Set("popular", strconv.FormatBool(*f.Popular))
	}
	if f.New != nil {
		q.Set("new", strconv.FormatBool(*f.New))
	}
	if f.Page > 0 {
		q.Set("page", strconv.Itoa(f.Page))
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	return q
}

func (l *listingsAPI) List(ctx context.Context, filter domain.ListingFilter) ([]*domain.Listing, error) {
	var out struct {
		Listings []*domain.Listing `json:"listings"`
	}
	err := l.c.do(ctx, request{method: http.MethodGet, path: "/listings", query: filterQuery(filter)}, &out)
	if err != nil {
		return nil, err
	}
	return out.Listings, nil
}

func (l *listingsAPI) Get(ctx context.Context, id string) (*domain.Listing, error) {
	var listing domain.Listing
	err := l.c.do(ctx, request{method: http.MethodGet, path: "/listings/" + url.PathEscape(id)}, &listing)
	if err != nil {
		return nil, err
	}
	return &listing, nil
}

func (l *listingsAPI) GetMany(ctx context.Context, ids []string) ([]*domain.Listing, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var listings []*domain.Listing
	err := l.c.do(ctx, request{
		method: http.MethodPost,
		path:   "/listings/batch",
		body:   map[string][]string{"ids": ids},
	}, &listings)
	if err != nil {
		return nil, err
	}
	return listings, nil
}

func (l *listingsAPI) Create(ctx context.Context, input backend.ListingInput) (*domain.Listing, error) {
	var listing domain.Listing
	err := l.c.do(ctx, request{method: http.MethodPost, path: "/listings", body: input, authed: true}, &listing)
	if err != nil {
		return nil, err
	}
	return &listing, nil
}

func (l *listingsAPI) Update(ctx context.Context, id string, input backend.ListingInput) (*domain.Listing, error) {
	var listing domain.Listing
	err := l.c.do(ctx, request{
		method: http.MethodPut,
		path:   "/listings/" + url.PathEscape(id),
		body:   input,
		authed: true,
	}, &listing)
	if err != nil {
		return nil, err
	}
	return &listing, nil
}

func (l *listingsAPI) Delete(ctx context.Context, id string) error {
	return l.c.do(ctx, request{method: http.MethodDelete, path: "/listings/" + url.PathEscape(id), authed: true}, nil)
}

type cartAPI struct{ c *Client }

func (a *cartAPI) List(ctx context.Context) ([]*domain.CartEntry, error) {
	var entries []*domain.CartEntry
	if err := a.c.do(ctx, request{method: http.MethodGet, path: "/cart", authed: true}, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (a *cartAPI) Insert(ctx context.Context, listingID string) (*domain.CartEntry, error) {
	var entry domain.CartEntry
	err := a.c.do(ctx, request{
		method: http.MethodPost,
		path:   "/cart",
		body:   map[string]string{"listing_id": listingID},
		authed: true,
	}, &entry)
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (a *cartAPI) Delete(ctx context.Context, listingID string) error {
	return a.c.do(ctx, request{method: http.MethodDelete, path: "/cart/" + url.PathEscape(listingID), authed: true}, nil)
}

func (a *cartAPI) DeleteAll(ctx context.Context) error {
	return a.c.do(ctx, request{method: http.MethodDelete, path: "/cart", authed: true}, nil)
}

type favoritesAPI struct{ c *Client }

func (f *favoritesAPI) List(ctx context.Context) ([]*domain.Favorite, error) {
	var favs []*domain.Favorite
	if err := f.c.do(ctx, request{method: http.MethodGet, path: "/favorites", authed: true}, &favs); err != nil {
		return nil, err
	}
	return favs, nil
}

func (f *favoritesAPI) Insert(ctx context.Context, listingID string) (*domain.Favorite, error) {
	var fav domain.Favorite
	err := f.c.do(ctx, request{
		method: http.MethodPost,
		path:   "/favorites",
		body:   map[string]string{"listing_id": listingID},
		authed: true,
	}, &fav)
	if err != nil {
		return nil, err
	}
	return &fav, nil
}

func (f *favoritesAPI) Delete(ctx context.Context, listingID string) error {
	return f.c.do(ctx, request{method: http.MethodDelete, path: "/favorites/" + url.PathEscape(listingID), authed: true}, nil)
}

type storageAPI struct{ c *Client }

func (s *storageAPI) UploadImage(ctx context.Context, filename, contentType string, body io.Reader) (string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	header.Set("Content-Type", contentType)
	part, err := w.CreatePart(header)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, body); err != nil {
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", err
	}

	var out struct {
		URL string `json:"url"`
	}
	err = s.c.do(ctx, request{
		method:      http.MethodPost,
		path:        "/storage/images",
		rawBody:     buf.Bytes(),
		contentType: w.FormDataContentType(),
		authed:      true,
	}, &out)
	if err != nil {
		return "", err
	}
	return out.URL, nil
}

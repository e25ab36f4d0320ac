package discogs

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/jrsteele09/vinylogger/users"
)

const (
	// folderAll lists every release; folderUncategorized is where additions land.
	folderAll           = 0
	folderUncategorized = 1

	DefaultPerPage = 20
	MaxPerPage     = 100
)

// Pagination is the paging block of list responses.
type Pagination struct {
	Page    int               `json:"page"`
	Pages   int               `json:"pages"`
	PerPage int               `json:"per_page"`
	Items   int               `json:"items"`
	URLs    map[string]string `json:"urls"`
}

// Artist is a release artist as listed in basic_information.
type Artist struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Format is a release format as listed in basic_information.
type Format struct {
	Name string `json:"name"`
	Text string `json:"text,omitempty"`
}

// BasicInformation is the release summary embedded in collection and wantlist items.
type BasicInformation struct {
	Title      string   `json:"title"`
	CoverImage string   `json:"cover_image"`
	Artists    []Artist `json:"artists"`
	Formats    []Format `json:"formats"`
}

// CollectionRelease is one item of a collection folder.
type CollectionRelease struct {
	ID               int              `json:"id"`
	InstanceID       int              `json:"instance_id"`
	DateAdded        time.Time        `json:"date_added"`
	BasicInformation BasicInformation `json:"basic_information"`
}

// CollectionPage is one page of the collection.
type CollectionPage struct {
	Pagination Pagination          `json:"pagination"`
	Releases   []CollectionRelease `json:"releases"`
}

// CollectionInstance is returned when a release is added to the collection.
type CollectionInstance struct {
	InstanceID  int    `json:"instance_id"`
	ResourceURL string `json:"resource_url"`
}

// Want is one item of the wantlist.
type Want struct {
	ID               int              `json:"id"`
	DateAdded        time.Time        `json:"date_added"`
	BasicInformation BasicInformation `json:"basic_information"`
}

// WantlistPage is one page of the wantlist.
type WantlistPage struct {
	Pagination Pagination `json:"pagination"`
	Wants      []Want     `json:"wants"`
}

// WantAdded is returned when a release is added to the wantlist.
type WantAdded struct {
	ID          int    `json:"id"`
	ResourceURL string `json:"resource_url"`
}

// ListCollection returns one page of the user's collection, most recently added first.
func (c *Client) ListCollection(ctx context.Context, user *users.User, page, perPage int) (*CollectionPage, error) {
	target := c.endpoints.UserURL(user.Username, "collection", "folders", strconv.Itoa(folderAll), "releases") + "?" + listQuery(page, perPage)
	var out CollectionPage
	if err := c.fetchJSON(ctx, user, http.MethodGet, target, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AddToCollection adds a release to the uncategorized folder.
func (c *Client) AddToCollection(ctx context.Context, user *users.User, releaseID int) (*CollectionInstance, error) {
	target := c.endpoints.UserURL(user.Username, "collection", "folders", strconv.Itoa(folderUncategorized), "releases", strconv.Itoa(releaseID))
	var out CollectionInstance
	if err := c.fetchJSON(ctx, user, http.MethodPost, target, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RemoveFromCollection removes one instance of a release from the uncategorized folder.
func (c *Client) RemoveFromCollection(ctx context.Context, user *users.User, releaseID, instanceID int) error {
	target := c.endpoints.UserURL(user.Username, "collection", "folders", strconv.Itoa(folderUncategorized),
		"releases", strconv.Itoa(releaseID), "instances", strconv.Itoa(instanceID))
	_, err := c.SignedFetch(ctx, user, http.MethodDelete, target, nil)
	return err
}

// ListWantlist returns one page of the user's wantlist, most recently added first.
func (c *Client) ListWantlist(ctx context.Context, user *users.User, page, perPage int) (*WantlistPage, error) {
	target := c.endpoints.UserURL(user.Username, "wants") + "?" + listQuery(page, perPage)
	var out WantlistPage
	if err := c.fetchJSON(ctx, user, http.MethodGet, target, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AddToWantlist adds a release to the wantlist.
func (c *Client) AddToWantlist(ctx context.Context, user *users.User, releaseID int) (*WantAdded, error) {
	target := c.endpoints.UserURL(user.Username, "wants", strconv.Itoa(releaseID))
	var out WantAdded
	if err := c.fetchJSON(ctx, user, http.MethodPut, target, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RemoveFromWantlist removes a release from the wantlist.
func (c *Client) RemoveFromWantlist(ctx context.Context, user *users.User, releaseID int) error {
	target := c.endpoints.UserURL(user.Username, "wants", strconv.Itoa(releaseID))
	_, err := c.SignedFetch(ctx, user, http.MethodDelete, target, nil)
	return err
}

func (c *Client) fetchJSON(ctx context.Context, user *users.User, method, target string, out any) error {
	resp, err := c.SignedFetch(ctx, user, method, target, nil)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, target, err)
	}
	return nil
}

func listQuery(page, perPage int) string {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}
	params := url.Values{}
	params.Set("sort", "added")
	params.Set("sort_order", "desc")
	params.Set("page", strconv.Itoa(page))
	params.Set("per_page", strconv.Itoa(perPage))
	return params.Encode()
}

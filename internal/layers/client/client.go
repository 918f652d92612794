// Package client talks to the layer service over REST. It is what an editing
// session uses as its backend.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"layer-editor/internal/layers/models"

	fclient "github.com/gofiber/fiber/v3/client"
)

// APIError is a non-2xx answer from the layer service.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("layer service: %d %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("layer service: %d %s", e.Status, e.Message)
}

// NotFound reports whether err is a 404 from the layer service.
func NotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// ============================================================
// Client
// ============================================================

type Client struct {
	http *fclient.Client
}

// New creates a client for the service at baseURL, e.g.
// http://localhost:3001 or http://gateway:3000/api/v1.
func New(baseURL string, timeout time.Duration) *Client {
	c := fclient.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetHeader("Accept", "application/json")
	if timeout > 0 {
		c.SetTimeout(timeout)
	}
	return &Client{http: c}
}

func (c *Client) ListProjects(ctx context.Context) ([]models.Project, error) {
	var out []models.Project
	resp, err := c.http.Get("/projects", fclient.Config{Ctx: ctx})
	if err := decode(resp, err, &out); err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return out, nil
}

func (c *Client) GetProject(ctx context.Context, projectID int64) (*models.Project, error) {
	var out models.Project
	resp, err := c.http.Get(fmt.Sprintf("/projects/%d", projectID), fclient.Config{Ctx: ctx})
	if err := decode(resp, err, &out); err != nil {
		return nil, fmt.Errorf("get project %d: %w", projectID, err)
	}
	return &out, nil
}

// UploadProject creates a project with its background image.
func (c *Client) UploadProject(ctx context.Context, title, description, filename string, image io.Reader) (*models.Project, error) {
	req := c.http.R().
		SetContext(ctx).
		SetFormDataWithMap(map[string]string{
			"title":       title,
			"description": description,
		})
	req.AddFiles(fclient.AcquireFile(
		fclient.SetFileFieldName("image_file"),
		fclient.SetFileName(filename),
		fclient.SetFileReader(io.NopCloser(image)),
	))

	var out models.Project
	resp, err := req.Post("/projects/upload")
	if err := decode(resp, err, &out); err != nil {
		return nil, fmt.Errorf("upload project: %w", err)
	}
	return &out, nil
}

func (c *Client) CreateLayer(ctx context.Context, in models.CreateLayerRequest) (*models.Layer, error) {
	var out models.Layer
	resp, err := c.http.Post("/layers", fclient.Config{Ctx: ctx, Body: in})
	if err := decode(resp, err, &out); err != nil {
		return nil, fmt.Errorf("create layer: %w", err)
	}
	return &out, nil
}

func (c *Client) PatchLayer(ctx context.Context, layerID int64, in models.PatchLayerRequest) (*models.Layer, error) {
	var out models.Layer
	resp, err := c.http.Patch(fmt.Sprintf("/layers/%d", layerID), fclient.Config{Ctx: ctx, Body: in})
	if err := decode(resp, err, &out); err != nil {
		return nil, fmt.Errorf("patch layer %d: %w", layerID, err)
	}
	return &out, nil
}

func (c *Client) DeleteLayer(ctx context.Context, layerID int64) error {
	resp, err := c.http.Delete(fmt.Sprintf("/layers/%d", layerID), fclient.Config{Ctx: ctx})
	if err := decode(resp, err, nil); err != nil {
		return fmt.Errorf("delete layer %d: %w", layerID, err)
	}
	return nil
}

// decode closes resp, maps non-2xx answers to *APIError and unmarshals the
// body into out when out is not nil.
func decode(resp *fclient.Response, err error, out any) error {
	if err != nil {
		return err
	}
	defer resp.Close()

	status := resp.StatusCode()
	if status < 200 || status > 299 {
		apiErr := &APIError{Status: status}
		var body struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(resp.Body(), &body) == nil {
			apiErr.Message = body.Error
		}
		return apiErr
	}

	if out == nil || len(resp.Body()) == 0 {
		return nil
	}
	if err := resp.JSON(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

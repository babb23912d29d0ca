// Package seed loads initial ingredients and menu items from JSON documents,
// optionally gzip-compressed, stored on disk or served over HTTP.
package seed

import (
	"bufio"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/Lixing-Zhang/foodstand-backend/internal/models"
	"github.com/Lixing-Zhang/foodstand-backend/internal/repository"
)

var ErrNoSources = errors.New("no seed sources provided")

// Document is the seed file format.
type Document struct {
	Ingredients []models.Ingredient `json:"ingredients"`
	MenuItems   []models.MenuItem   `json:"menuItems"`
}

// Applied counts the records Apply wrote.
type Applied struct {
	Ingredients int
	MenuItems   int
}

// Loader reads seed documents concurrently.
type Loader struct {
	client *http.Client
	logger *slog.Logger
}

// loadResult holds the result of loading a single source
type loadResult struct {
	index int
	doc   Document
	err   error
}

// NewLoader creates a loader that downloads with client. A nil client gets a
// default one with a one minute timeout.
func NewLoader(client *http.Client, logger *slog.Logger) *Loader {
	if client == nil {
		client = &http.Client{Timeout: time.Minute}
	}
	return &Loader{
		client: client,
		logger: logger.With("component", "seed"),
	}
}

// LoadFromFiles reads every path concurrently and merges the documents.
func (l *Loader) LoadFromFiles(ctx context.Context, paths []string) (*Document, error) {
	return l.loadAll(ctx, paths, l.loadFile)
}

// LoadFromURLs downloads every url concurrently and merges the documents.
func (l *Loader) LoadFromURLs(ctx context.Context, urls []string) (*Document, error) {
	defer l.client.CloseIdleConnections()
	return l.loadAll(ctx, urls, l.loadURL)
}

func (l *Loader) loadAll(ctx context.Context, sources []string, load func(context.Context, string) (Document, error)) (*Document, error) {
	if len(sources) == 0 {
		return nil, ErrNoSources
	}

	resultChan := make(chan loadResult, len(sources))

	var wg sync.WaitGroup
	for i, src := range sources {
		wg.Add(1)
		go func(index int, source string) {
			defer wg.Done()

			doc, err := load(ctx, source)
			resultChan <- loadResult{index: index, doc: doc, err: err}
		}(i, src)
	}

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	// keep source order so later sources override earlier ones
	results := make([]loadResult, len(sources))
	for result := range resultChan {
		results[result.index] = result
	}

	docs := make([]Document, 0, len(results))
	for i, result := range results {
		if result.err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", sources[i], result.err)
		}
		l.logger.Info("seed source loaded",
			"source", sources[i],
			"ingredients", len(result.doc.Ingredients),
			"menu_items", len(result.doc.MenuItems),
		)
		docs = append(docs, result.doc)
	}

	return merge(docs), nil
}

func (l *Loader) loadFile(ctx context.Context, path string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	f, err := os.Open(path)
	if err != nil {
		return Document{}, err
	}
	defer f.Close()

	return decode(f)
}

func (l *Loader) loadURL(ctx context.Context, url string) (Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Document{}, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return Document{}, fmt.Errorf("failed to download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Document{}, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	return decode(resp.Body)
}

// decode parses a document, transparently gunzipping it when the stream
// starts with the gzip magic bytes.
func decode(r io.Reader) (Document, error) {
	br := bufio.NewReader(r)
	var src io.Reader = br

	magic, err := br.Peek(2)
	if err == nil && magic[0] == 0x1f && magic[1] == 0x8b {
		gz, err := gzip.NewReader(br)
		if err != nil {
			return Document{}, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		defer gz.Close()
		src = gz
	}

	var doc Document
	if err := json.NewDecoder(src).Decode(&doc); err != nil {
		return Document{}, fmt.Errorf("failed to decode seed document: %w", err)
	}
	return doc, nil
}

// merge combines docs by record id; a later document wins.
func merge(docs []Document) *Document {
	ingredients := map[int64]models.Ingredient{}
	menu := map[int64]models.MenuItem{}
	for _, d := range docs {
		for _, ing := range d.Ingredients {
			ingredients[ing.ID] = ing
		}
		for _, m := range d.MenuItems {
			menu[m.ID] = m
		}
	}

	out := &Document{
		Ingredients: make([]models.Ingredient, 0, len(ingredients)),
		MenuItems:   make([]models.MenuItem, 0, len(menu)),
	}
	for _, ing := range ingredients {
		out.Ingredients = append(out.Ingredients, ing)
	}
	for _, m := range menu {
		out.MenuItems = append(out.MenuItems, m)
	}
	sort.Slice(out.Ingredients, func(i, j int) bool { return out.Ingredients[i].ID < out.Ingredients[j].ID })
	sort.Slice(out.MenuItems, func(i, j int) bool { return out.MenuItems[i].ID < out.MenuItems[j].ID })
	return out
}

// Apply writes the document into store, touching only collections that are
// still empty. Records are validated first; quantities are rounded to their
// unit and missing timestamps set to now.
func (d *Document) Apply(ctx context.Context, store repository.Store, now time.Time) (Applied, error) {
	var applied Applied

	ingredients, err := d.normalizedIngredients(now)
	if err != nil {
		return applied, err
	}
	menu, err := d.normalizedMenu(now)
	if err != nil {
		return applied, err
	}

	existing, err := store.GetIngredients(ctx)
	if err != nil {
		return applied, fmt.Errorf("load ingredients: %w", err)
	}
	if len(existing) == 0 && len(ingredients) > 0 {
		if err := store.SaveIngredients(ctx, ingredients); err != nil {
			return applied, fmt.Errorf("save ingredients: %w", err)
		}
		applied.Ingredients = len(ingredients)
	}

	existingMenu, err := store.GetMenuItems(ctx)
	if err != nil {
		return applied, fmt.Errorf("load menu items: %w", err)
	}
	if len(existingMenu) == 0 && len(menu) > 0 {
		if err := store.SaveMenuItems(ctx, menu); err != nil {
			return applied, fmt.Errorf("save menu items: %w", err)
		}
		applied.MenuItems = len(menu)
	}

	return applied, nil
}

func (d *Document) normalizedIngredients(now time.Time) ([]models.Ingredient, error) {
	out := make([]models.Ingredient, 0, len(d.Ingredients))
	for _, ing := range d.Ingredients {
		if ing.ID <= 0 {
			return nil, fmt.Errorf("%w: ingredient %q has no id", models.ErrValidation, ing.Name)
		}
		ing.Quantity = models.RoundQuantity(ing.Quantity, ing.Unit)
		stamp(&ing.CreatedAt, &ing.UpdatedAt, now)
		if err := ing.Validate(); err != nil {
			return nil, fmt.Errorf("ingredient %d: %w", ing.ID, err)
		}
		out = append(out, ing)
	}
	return out, nil
}

func (d *Document) normalizedMenu(now time.Time) ([]models.MenuItem, error) {
	out := make([]models.MenuItem, 0, len(d.MenuItems))
	for _, m := range d.MenuItems {
		if m.ID <= 0 {
			return nil, fmt.Errorf("%w: menu item %q has no id", models.ErrValidation, m.Name)
		}
		stamp(&m.CreatedAt, &m.UpdatedAt, now)
		if err := m.Validate(); err != nil {
			return nil, fmt.Errorf("menu item %d: %w", m.ID, err)
		}
		out = append(out, m)
	}
	return out, nil
}

func stamp(created, updated *time.Time, now time.Time) {
	if created.IsZero() {
		*created = now
	}
	if updated.IsZero() {
		*updated = *created
	}
}

package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shinyyama/inventory-vision-backend/internal/extract"
	"github.com/shinyyama/inventory-vision-backend/internal/model"
	"github.com/shinyyama/inventory-vision-backend/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("item id already exists")

	itemIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
	seqIDPattern  = regexp.MustCompile(`^ITM(\d+)$`)
)

// ValidationError carries a user-facing message for a rejected field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

type CreateItemParams struct {
	ItemID          string
	Title           string
	Description     string
	Vendor          string
	ManufactureDate string
	Categories      string
	Subcategories   string
	ImageURL        *string
}

// UpdateItemParams applies a partial update; nil fields are left untouched.
type UpdateItemParams struct {
	ItemID          *string
	Title           *string
	Description     *string
	Vendor          *string
	ManufactureDate *string
	Categories      *string
	Subcategories   *string
	ImageURL        *string
}

type Stats struct {
	TotalItems     int      `json:"totalItems"`
	TotalVendors   int      `json:"totalVendors"`
	ItemsThisMonth int      `json:"itemsThisMonth"`
	Vendors        []string `json:"vendors"`
}

type ItemService interface {
	Create(ctx context.Context, ownerUID string, p CreateItemParams) (*model.Item, error)
	Get(ctx context.Context, ownerUID string, id uint64) (*model.Item, error)
	List(ctx context.Context, ownerUID string, limit, offset int) ([]model.Item, int64, error)
	Update(ctx context.Context, ownerUID string, id uint64, p UpdateItemParams) (*model.Item, error)
	Delete(ctx context.Context, ownerUID string, id uint64) error
	Search(ctx context.Context, ownerUID, query string) ([]model.Item, error)
	Stats(ctx context.Context, ownerUID string) (*Stats, error)
	NextItemID(ctx context.Context, ownerUID string) (string, error)
}

type itemService struct {
	repo repository.ItemRepository
	now  func() time.Time
}

func NewItemService(repo repository.ItemRepository) ItemService {
	return &itemService{repo: repo, now: time.Now}
}

func (s *itemService) Create(ctx context.Context, ownerUID string, p CreateItemParams) (*model.Item, error) {
	item := &model.Item{
		OwnerUID:        ownerUID,
		ItemID:          strings.TrimSpace(p.ItemID),
		Title:           strings.TrimSpace(p.Title),
		Description:     strings.TrimSpace(p.Description),
		Vendor:          strings.TrimSpace(p.Vendor),
		ManufactureDate: strings.TrimSpace(p.ManufactureDate),
		Categories:      extract.NormalizeTokens(p.Categories),
		Subcategories:   extract.NormalizeTokens(p.Subcategories),
		ImageURL:        p.ImageURL,
	}
	if err := s.validate(item); err != nil {
		return nil, err
	}

	existing, err := s.repo.FindByItemID(ctx, ownerUID, item.ItemID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrDuplicate
	}

	if err := s.repo.Create(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *itemService) Get(ctx context.Context, ownerUID string, id uint64) (*model.Item, error) {
	item, err := s.repo.FindByID(ctx, ownerUID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return item, nil
}

func (s *itemService) List(ctx context.Context, ownerUID string, limit, offset int) ([]model.Item, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.List(ctx, ownerUID, limit, offset)
}

func (s *itemService) Update(ctx context.Context, ownerUID string, id uint64, p UpdateItemParams) (*model.Item, error) {
	item, err := s.Get(ctx, ownerUID, id)
	if err != nil {
		return nil, err
	}

	if p.ItemID != nil {
		newID := strings.TrimSpace(*p.ItemID)
		if newID != item.ItemID {
			dup, err := s.repo.FindByItemID(ctx, ownerUID, newID)
			if err != nil {
				return nil, err
			}
			if dup != nil {
				return nil, ErrDuplicate
			}
		}
		item.ItemID = newID
	}
	if p.Title != nil {
		item.Title = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		item.Description = strings.TrimSpace(*p.Description)
	}
	if p.Vendor != nil {
		item.Vendor = strings.TrimSpace(*p.Vendor)
	}
	if p.ManufactureDate != nil {
		item.ManufactureDate = strings.TrimSpace(*p.ManufactureDate)
	}
	if p.Categories != nil {
		item.Categories = extract.NormalizeTokens(*p.Categories)
	}
	if p.Subcategories != nil {
		item.Subcategories = extract.NormalizeTokens(*p.Subcategories)
	}
	if p.ImageURL != nil {
		item.ImageURL = p.ImageURL
	}

	if err := s.validate(item); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *itemService) Delete(ctx context.Context, ownerUID string, id uint64) error {
	deleted, err := s.repo.Delete(ctx, ownerUID, id)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrNotFound
	}
	return nil
}

func (s *itemService) Search(ctx context.Context, ownerUID, query string) ([]model.Item, error) {
	return s.repo.Search(ctx, ownerUID, strings.TrimSpace(query))
}

func (s *itemService) Stats(ctx context.Context, ownerUID string) (*Stats, error) {
	items, err := s.repo.ListAll(ctx, ownerUID)
	if err != nil {
		return nil, err
	}

	monthStart := s.monthStart()
	vendors := make([]string, 0)
	seen := make(map[string]struct{})
	thisMonth := 0
	for _, it := range items {
		if _, ok := seen[it.Vendor]; !ok && it.Vendor != "" {
			seen[it.Vendor] = struct{}{}
			vendors = append(vendors, it.Vendor)
		}
		if !it.CreatedAt.Before(monthStart) {
			thisMonth++
		}
	}

	return &Stats{
		TotalItems:     len(items),
		TotalVendors:   len(vendors),
		ItemsThisMonth: thisMonth,
		Vendors:        vendors,
	}, nil
}

// NextItemID scans existing ITM-prefixed ids and returns the next in
// sequence, zero padded to three digits (ITM001, ITM002, ...).
func (s *itemService) NextItemID(ctx context.Context, ownerUID string) (string, error) {
	items, err := s.repo.ListAll(ctx, ownerUID)
	if err != nil {
		return "", err
	}
	next := 1
	for _, it := range items {
		m := seqIDPattern.FindStringSubmatch(it.ItemID)
		if m == nil {
			continue
		}
		if n, err := strconv.Atoi(m[1]); err == nil && n >= next {
			next = n + 1
		}
	}
	return fmt.Sprintf("ITM%03d", next), nil
}

func (s *itemService) validate(item *model.Item) error {
	required := []struct {
		field, label, value string
	}{
		{"title", "Title", item.Title},
		{"description", "Description", item.Description},
		{"item_id", "Item ID", item.ItemID},
		{"vendor", "Vendor", item.Vendor},
		{"manufacture_date", "Manufacture Date", item.ManufactureDate},
	}
	for _, r := range required {
		if r.value == "" {
			return &ValidationError{Field: r.field, Message: r.label + " is required"}
		}
	}
	if len(item.Title) > 120 {
		return &ValidationError{Field: "title", Message: "Title is too long"}
	}
	if !itemIDPattern.MatchString(item.ItemID) {
		return &ValidationError{Field: "item_id", Message: "Item ID can only contain letters, numbers, hyphens, and underscores"}
	}
	if !extract.ValidDate(item.ManufactureDate) {
		return &ValidationError{Field: "manufacture_date", Message: "Manufacture date must be in YYYY-MM-DD format"}
	}
	d, err := time.Parse("2006-01-02", item.ManufactureDate)
	if err != nil {
		return &ValidationError{Field: "manufacture_date", Message: "Invalid manufacture date"}
	}
	if d.After(s.endOfToday()) {
		return &ValidationError{Field: "manufacture_date", Message: "Manufacture date cannot be in the future"}
	}
	if item.ImageURL != nil && strings.HasPrefix(strings.TrimSpace(*item.ImageURL), "data:") {
		return &ValidationError{Field: "imageUrl", Message: "imageUrl must be a URL, not data URI"}
	}
	return nil
}

func (s *itemService) endOfToday() time.Time {
	now := s.now()
	return time.Date(now.Year(), now.Month(), now.Day(), 23, 59, 59, 0, time.UTC)
}

func (s *itemService) monthStart() time.Time {
	now := s.now()
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
}

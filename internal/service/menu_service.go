package service

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/fjod/go_food/internal/assets"
	"github.com/fjod/go_food/internal/cache"
	"github.com/fjod/go_food/internal/domain"
	"github.com/shopspring/decimal"
)

// MenuReadNamespace is the cache-key prefix covering every cacheable menu
// read (list and by-id). Mutations invalidate the whole namespace because
// list and item responses share it but not a single key.
const MenuReadNamespace = "cache:/api/foods"

const invalidateTimeout = time.Second

type MenuRepository interface {
	ListMenuItems(ctx context.Context) ([]domain.MenuItem, error)
	GetMenuItem(ctx context.Context, id int64) (*domain.MenuItem, error)
	CreateMenuItem(ctx context.Context, item *domain.MenuItem) error
	UpdateMenuItem(ctx context.Context, item *domain.MenuItem) (prevImage string, err error)
	DeleteMenuItem(ctx context.Context, id int64) error
}

// ImageUpload carries one uploaded image part.
type ImageUpload struct {
	Data     io.Reader
	Filename string
}

type MenuItemInput struct {
	Name        string
	Price       decimal.Decimal
	Category    string
	Description string
	Image       *ImageUpload
}

// MenuService owns every menu mutation as one logical unit: asset write,
// catalog row write, cache invalidation. File and row are never mutated
// independently of each other.
type MenuService struct {
	repo  MenuRepository
	cache cache.Cache
	files assets.Store
}

func NewMenuService(repo MenuRepository, c cache.Cache, files assets.Store) *MenuService {
	return &MenuService{
		repo:  repo,
		cache: c,
		files: files,
	}
}

func (s *MenuService) List(ctx context.Context) ([]domain.MenuItem, error) {
	return s.repo.ListMenuItems(ctx)
}

func (s *MenuService) Get(ctx context.Context, id int64) (*domain.MenuItem, error) {
	return s.repo.GetMenuItem(ctx, id)
}

func (s *MenuService) Create(ctx context.Context, input MenuItemInput) (*domain.MenuItem, error) {
	if err := validateMenuInput(input); err != nil {
		return nil, err
	}

	var handle string
	if input.Image != nil {
		var err error
		handle, err = s.files.Save(input.Image.Data, input.Image.Filename)
		if err != nil {
			return nil, err
		}
	}

	item := &domain.MenuItem{
		Name:        input.Name,
		Price:       input.Price,
		Category:    input.Category,
		Image:       handle,
		Description: input.Description,
	}
	if err := s.repo.CreateMenuItem(ctx, item); err != nil {
		// The row never committed, so the file just written is an orphan.
		// Reclaim it now; the reconciler catches it if this fails too.
		if handle != "" {
			if e2 := s.files.Delete(handle); e2 != nil {
				log.Printf("failed to remove orphaned upload %s: %v", handle, e2)
			}
		}
		return nil, err
	}

	s.invalidate()
	return item, nil
}

// Update applies the new fields and, when a new image is supplied, swaps the
// asset reference. The new file is written first and the old one deleted only
// after the row update commits: a failure in between leaves the previous
// file and reference both intact. The image handle is never round-tripped
// through this layer: the repository keeps the stored handle under a row lock
// when no new image is supplied and reports which handle it replaced, so
// concurrent updates of the same item cannot detach each other's files.
func (s *MenuService) Update(ctx context.Context, id int64, input MenuItemInput) (*domain.MenuItem, error) {
	if err := validateMenuInput(input); err != nil {
		return nil, err
	}

	var newHandle string
	if input.Image != nil {
		var err error
		newHandle, err = s.files.Save(input.Image.Data, input.Image.Filename)
		if err != nil {
			return nil, err
		}
	}

	item := &domain.MenuItem{
		ID:          id,
		Name:        input.Name,
		Price:       input.Price,
		Category:    input.Category,
		Image:       newHandle,
		Description: input.Description,
	}

	prevHandle, err := s.repo.UpdateMenuItem(ctx, item)
	if err != nil {
		if newHandle != "" {
			if e2 := s.files.Delete(newHandle); e2 != nil {
				log.Printf("failed to remove orphaned upload %s: %v", newHandle, e2)
			}
		}
		return nil, err
	}

	if newHandle != "" && prevHandle != "" && prevHandle != newHandle {
		if e2 := s.files.Delete(prevHandle); e2 != nil {
			// Superseded file stays behind as an orphan until the sweep.
			log.Printf("failed to remove superseded image %s: %v", prevHandle, e2)
		}
	}

	s.invalidate()
	return item, nil
}

// Delete removes the row first and the file only after the row deletion
// succeeds. When the row is still referenced by order lines the repository
// reports a conflict and the image is left untouched.
func (s *MenuService) Delete(ctx context.Context, id int64) error {
	current, err := s.repo.GetMenuItem(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.DeleteMenuItem(ctx, id); err != nil {
		return err
	}

	if current.Image != "" {
		if e2 := s.files.Delete(current.Image); e2 != nil {
			log.Printf("failed to remove image %s of deleted item %d: %v", current.Image, id, e2)
		}
	}

	s.invalidate()
	return nil
}

// invalidate sweeps the menu read namespace before the mutating call
// returns, so a client that immediately re-reads never sees pre-mutation
// data. Cache trouble only costs staleness, never the mutation itself.
func (s *MenuService) invalidate() {
	ctx, cancel := context.WithTimeout(context.Background(), invalidateTimeout)
	defer cancel()

	if _, err := s.cache.DeleteByPrefix(ctx, MenuReadNamespace); err != nil {
		log.Printf("cache invalidate error: %v", err)
	}
}

func validateMenuInput(input MenuItemInput) error {
	if input.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if input.Category == "" {
		return fmt.Errorf("%w: category is required", ErrInvalidInput)
	}
	if input.Price.IsNegative() {
		return fmt.Errorf("%w: price must not be negative", ErrInvalidInput)
	}
	return nil
}

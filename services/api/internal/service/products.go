package service

import (
	"context"

	"github.com/md-ataur/watch-redux-server/services/api/internal/store"
	"github.com/md-ataur/watch-redux-server/shared/pkg/models"
)

// ProductsService is plain catalog CRUD with no authorization.
type ProductsService struct {
	Products store.Collection[models.Product]
}

func (s *ProductsService) Create(ctx context.Context, p models.Product) (store.InsertResult, error) {
	p.ID = ""
	return s.Products.Create(ctx, p)
}

func (s *ProductsService) List(ctx context.Context) ([]models.Product, error) {
	return s.Products.FindAll(ctx)
}

func (s *ProductsService) Get(ctx context.Context, id string) (models.Product, error) {
	return s.Products.FindByID(ctx, id)
}

func (s *ProductsService) Delete(ctx context.Context, id string) (store.DeleteResult, error) {
	return s.Products.DeleteOne(ctx, store.ByID(id))
}

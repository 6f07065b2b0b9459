package cart

import (
	"context"
	"errors"
)

// Service exposes the bulk mutation operations with the result contract
// controllers consume: domain failures come back as messages on the
// Result, infrastructure failures as an error.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Current(ctx context.Context, cartID int64) (*Cart, error) {
	return s.repo.GetWithLines(ctx, cartID)
}

func (s *Service) AddItems(ctx context.Context, cartID int64, requests []LineRequest) (Result, error) {
	return s.apply(ctx, cartID, requests, s.repo.AddItems)
}

func (s *Service) RemoveItems(ctx context.Context, cartID int64, requests []LineRequest) (Result, error) {
	return s.apply(ctx, cartID, requests, s.repo.RemoveItems)
}

func (s *Service) apply(
	ctx context.Context,
	cartID int64,
	requests []LineRequest,
	op func(context.Context, int64, []LineRequest) error,
) (Result, error) {
	if err := op(ctx, cartID, requests); err != nil {
		var batchErr *BatchError
		if errors.As(err, &batchErr) {
			return Result{Errors: batchErr.Messages}, nil
		}
		return Result{}, err
	}

	record, err := s.repo.GetWithLines(ctx, cartID)
	if err != nil {
		return Result{}, err
	}
	return Result{Success: true, Record: record}, nil
}

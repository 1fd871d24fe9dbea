package api

import (
	"context"

	"strata-api/domain"
)

// Storage abstracts persistence for handlers.
type Storage interface {
	FetchBoard(ctx context.Context, id string) (*domain.Board, error)
	FetchBoards(ctx context.Context) ([]domain.Board, error)
	CountBoardItems(ctx context.Context, boardID, kind string) (int, error)
	FetchColumns(ctx context.Context, vocabulary string) ([]domain.Column, error)
	FetchBoardItems(ctx context.Context, boardID, kind string) ([]domain.Item, error)
	FetchItemsByKind(ctx context.Context, kind string) ([]domain.Item, error)
	GetColumn(ctx context.Context, id string) (*domain.Column, error)
	GetItem(ctx context.Context, id string) (*domain.Item, error)
	SaveItemPlacement(ctx context.Context, it *domain.Item, statusID string, weight *int) error
	FetchSettings(ctx context.Context) (domain.Settings, error)
	SaveSettings(ctx context.Context, settings domain.Settings) error
}

// ViewCache holds assembled board views between requests. Implementations
// must evict views when a tagged entity changes; a nil ViewCache disables
// caching entirely.
type ViewCache interface {
	LoadBoardView(ctx context.Context, boardID string) (*domain.BoardView, bool)
	StoreBoardView(ctx context.Context, view domain.BoardView)
}

// Authenticator resolves the acting principal from request headers. An
// empty Authorization header yields the anonymous principal, not an error.
type Authenticator interface {
	PrincipalFromAuthHeader(string) (domain.Principal, error)
}

// Notifier delivers status-change notifications to interested parties.
type Notifier interface {
	EnqueueNotification(ctx context.Context, n domain.Notification) error
}

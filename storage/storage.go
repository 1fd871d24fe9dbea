package storage

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azqueue"

	"strata-api/domain"
)

const (
	boardPartition    = "board"
	settingsPartition = "settings"
	settingsRow       = "settings"
)

// Storage provides access to the board tables and the notification queue.
type Storage struct {
	boardTable    *aztables.Client
	columnTable   *aztables.Client
	itemTable     *aztables.Client
	settingsTable *aztables.Client
	notifyQueue   *azqueue.QueueClient
}

// TableNames names the tables and queue a Storage instance works against.
type TableNames struct {
	Boards      string
	Columns     string
	Items       string
	Settings    string
	NotifyQueue string
}

// New creates a Storage instance from the given connection string.
func New(connStr string, names TableNames) (*Storage, error) {
	tablesClientOptions := aztables.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries:    3,
				TryTimeout:    time.Minute * 3,
				RetryDelay:    time.Second * 1,
				MaxRetryDelay: time.Second * 15,
				StatusCodes:   []int{408, 429, 500, 502, 503, 504},
			},
		},
	}
	svc, err := aztables.NewServiceClientFromConnectionString(connStr, &tablesClientOptions)
	if err != nil {
		return nil, err
	}
	queueClientOptions := azqueue.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries:    5,
				TryTimeout:    time.Minute * 5,
				RetryDelay:    time.Second * 1,
				MaxRetryDelay: time.Second * 60,
				StatusCodes:   []int{408, 429, 500, 502, 503, 504},
			},
		},
	}
	nq, err := azqueue.NewQueueClientFromConnectionString(connStr, names.NotifyQueue, &queueClientOptions)
	if err != nil {
		return nil, err
	}
	return &Storage{
		boardTable:    svc.NewClient(names.Boards),
		columnTable:   svc.NewClient(names.Columns),
		itemTable:     svc.NewClient(names.Items),
		settingsTable: svc.NewClient(names.Settings),
		notifyQueue:   nq,
	}, nil
}

type boardEntity struct {
	aztables.Entity
	Title       string `json:"Title"`
	Description string `json:"Description"`
	ItemKind    string `json:"ItemKind"`
	Vocabulary  string `json:"Vocabulary"`
	// ColumnIDs is the explicit column selection serialized as a JSON array.
	ColumnIDs   string `json:"ColumnIDs"`
	Published   bool   `json:"Published"`
	Created     int64  `json:"Created,string"`
	CreatedType string `json:"Created@odata.type,omitempty"`
}

type columnEntity struct {
	aztables.Entity
	Name   string `json:"Name"`
	Weight int    `json:"Weight"`
}

type itemEntity struct {
	aztables.Entity
	Kind         string `json:"Kind"`
	Title        string `json:"Title"`
	StatusID     string `json:"StatusID"`
	Weight       int    `json:"Weight"`
	AuthorID     string `json:"AuthorID"`
	AssigneeID   string `json:"AssigneeID"`
	CommentCount int    `json:"CommentCount"`
	FileCount    int    `json:"FileCount"`
	Published    bool   `json:"Published"`
	Created      int64  `json:"Created,string"`
	CreatedType  string `json:"Created@odata.type,omitempty"`
	// Fields carries the kind-specific optional fields as a JSON object.
	Fields string `json:"Fields"`
}

type settingsEntity struct {
	aztables.Entity
	RestrictedKinds string `json:"RestrictedKinds"`
	NotifyKinds     string `json:"NotifyKinds"`
	NotifyRoles     string `json:"NotifyRoles"`
}

func decodeBoardEntity(data []byte) (domain.Board, error) {
	var ent boardEntity
	if err := json.Unmarshal(data, &ent); err != nil {
		return domain.Board{}, err
	}
	b := domain.Board{
		ID:          ent.RowKey,
		Title:       ent.Title,
		Description: ent.Description,
		ItemKind:    ent.ItemKind,
		Vocabulary:  ent.Vocabulary,
		Published:   ent.Published,
		Created:     time.Unix(ent.Created, 0).UTC(),
	}
	if ent.ColumnIDs != "" {
		if err := json.Unmarshal([]byte(ent.ColumnIDs), &b.ColumnIDs); err != nil {
			return domain.Board{}, err
		}
	}
	return b, nil
}

func decodeItemEntity(data []byte) (domain.Item, error) {
	var ent itemEntity
	if err := json.Unmarshal(data, &ent); err != nil {
		return domain.Item{}, err
	}
	it := domain.Item{
		ID:           ent.RowKey,
		Kind:         ent.Kind,
		Title:        ent.Title,
		BoardID:      ent.PartitionKey,
		StatusID:     ent.StatusID,
		Weight:       ent.Weight,
		AuthorID:     ent.AuthorID,
		AssigneeID:   ent.AssigneeID,
		CommentCount: ent.CommentCount,
		FileCount:    ent.FileCount,
		Published:    ent.Published,
		Created:      time.Unix(ent.Created, 0).UTC(),
	}
	if ent.Fields != "" {
		if err := json.Unmarshal([]byte(ent.Fields), &it.Fields); err != nil {
			return domain.Item{}, err
		}
	}
	return it, nil
}

func decodeSettingsEntity(data []byte) (domain.Settings, error) {
	var ent settingsEntity
	if err := json.Unmarshal(data, &ent); err != nil {
		return domain.Settings{}, err
	}
	s := domain.Settings{}
	for _, field := range []struct {
		raw  string
		into *[]string
	}{
		{ent.RestrictedKinds, &s.RestrictedKinds},
		{ent.NotifyKinds, &s.NotifyKinds},
		{ent.NotifyRoles, &s.NotifyRoles},
	} {
		if field.raw == "" {
			continue
		}
		if err := json.Unmarshal([]byte(field.raw), field.into); err != nil {
			return domain.Settings{}, err
		}
	}
	return s, nil
}

func isNotFound(err error) bool {
	var respErr *azcore.ResponseError
	return errors.As(err, &respErr) && respErr.StatusCode == 404
}

// FetchBoard loads one board; a missing board is (nil, nil).
func (s *Storage) FetchBoard(ctx context.Context, id string) (*domain.Board, error) {
	ent, err := s.boardTable.GetEntity(ctx, boardPartition, id, nil)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	b, err := decodeBoardEntity(ent.Value)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// FetchBoards retrieves all published boards, newest first.
func (s *Storage) FetchBoards(ctx context.Context) ([]domain.Board, error) {
	filter := "PartitionKey eq '" + boardPartition + "' and Published eq true"
	pager := s.boardTable.NewListEntitiesPager(&aztables.ListEntitiesOptions{Filter: &filter})
	boards := []domain.Board{}
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, e := range resp.Entities {
			b, err := decodeBoardEntity(e)
			if err != nil {
				return nil, err
			}
			boards = append(boards, b)
		}
	}
	sort.Slice(boards, func(i, j int) bool { return boards[i].Created.After(boards[j].Created) })
	return boards, nil
}

// CountBoardItems counts published items of the kind on the given board.
func (s *Storage) CountBoardItems(ctx context.Context, boardID, kind string) (int, error) {
	filter := "PartitionKey eq '" + boardID + "' and Kind eq '" + kind + "' and Published eq true"
	sel := "PartitionKey,RowKey"
	pager := s.itemTable.NewListEntitiesPager(&aztables.ListEntitiesOptions{Filter: &filter, Select: &sel})
	count := 0
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return 0, err
		}
		count += len(resp.Entities)
	}
	return count, nil
}

// FetchColumns retrieves all columns of a vocabulary.
func (s *Storage) FetchColumns(ctx context.Context, vocabulary string) ([]domain.Column, error) {
	filter := "PartitionKey eq '" + vocabulary + "'"
	pager := s.columnTable.NewListEntitiesPager(&aztables.ListEntitiesOptions{Filter: &filter})
	columns := []domain.Column{}
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, e := range resp.Entities {
			var ent columnEntity
			if err := json.Unmarshal(e, &ent); err != nil {
				return nil, err
			}
			columns = append(columns, domain.Column{
				ID:         ent.RowKey,
				Name:       ent.Name,
				Vocabulary: ent.PartitionKey,
				Weight:     ent.Weight,
			})
		}
	}
	return columns, nil
}

// GetColumn loads a column term by id across vocabularies; a missing term
// is (nil, nil).
func (s *Storage) GetColumn(ctx context.Context, id string) (*domain.Column, error) {
	filter := "RowKey eq '" + id + "'"
	pager := s.columnTable.NewListEntitiesPager(&aztables.ListEntitiesOptions{Filter: &filter})
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, e := range resp.Entities {
			var ent columnEntity
			if err := json.Unmarshal(e, &ent); err != nil {
				return nil, err
			}
			return &domain.Column{
				ID:         ent.RowKey,
				Name:       ent.Name,
				Vocabulary: ent.PartitionKey,
				Weight:     ent.Weight,
			}, nil
		}
	}
	return nil, nil
}

// FetchBoardItems retrieves the published items of one kind on a board.
func (s *Storage) FetchBoardItems(ctx context.Context, boardID, kind string) ([]domain.Item, error) {
	filter := "PartitionKey eq '" + boardID + "' and Kind eq '" + kind + "' and Published eq true"
	return s.queryItems(ctx, filter)
}

// FetchItemsByKind retrieves all published items of a kind across boards.
func (s *Storage) FetchItemsByKind(ctx context.Context, kind string) ([]domain.Item, error) {
	filter := "Kind eq '" + kind + "' and Published eq true"
	return s.queryItems(ctx, filter)
}

func (s *Storage) queryItems(ctx context.Context, filter string) ([]domain.Item, error) {
	pager := s.itemTable.NewListEntitiesPager(&aztables.ListEntitiesOptions{Filter: &filter})
	items := []domain.Item{}
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, e := range resp.Entities {
			it, err := decodeItemEntity(e)
			if err != nil {
				return nil, err
			}
			items = append(items, it)
		}
	}
	return items, nil
}

// GetItem loads an item by id; a missing item is (nil, nil).
func (s *Storage) GetItem(ctx context.Context, id string) (*domain.Item, error) {
	filter := "RowKey eq '" + id + "'"
	items, err := s.queryItems(ctx, filter)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return &items[0], nil
}

type itemPlacementUpdate struct {
	aztables.Entity
	StatusID string `json:"StatusID"`
	Weight   *int   `json:"Weight,omitempty"`
}

// SaveItemPlacement persists a new status and, when given, a new weight
// for the item. The merge is unconditional: concurrent reorders resolve
// as last write wins.
func (s *Storage) SaveItemPlacement(ctx context.Context, it *domain.Item, statusID string, weight *int) error {
	upd := itemPlacementUpdate{
		Entity:   aztables.Entity{PartitionKey: it.BoardID, RowKey: it.ID},
		StatusID: statusID,
		Weight:   weight,
	}
	data, err := json.Marshal(upd)
	if err != nil {
		return err
	}
	_, err = s.itemTable.UpdateEntity(ctx, data, &aztables.UpdateEntityOptions{UpdateMode: aztables.UpdateModeMerge})
	return err
}

// FetchSettings loads the admin settings. Absent settings decode to the
// zero value rather than an error.
func (s *Storage) FetchSettings(ctx context.Context) (domain.Settings, error) {
	ent, err := s.settingsTable.GetEntity(ctx, settingsPartition, settingsRow, nil)
	if err != nil {
		if isNotFound(err) {
			return domain.Settings{}, nil
		}
		return domain.Settings{}, err
	}
	return decodeSettingsEntity(ent.Value)
}

// SaveSettings upserts the admin settings.
func (s *Storage) SaveSettings(ctx context.Context, settings domain.Settings) error {
	ent := settingsEntity{
		Entity: aztables.Entity{PartitionKey: settingsPartition, RowKey: settingsRow},
	}
	for _, field := range []struct {
		list []string
		into *string
	}{
		{settings.RestrictedKinds, &ent.RestrictedKinds},
		{settings.NotifyKinds, &ent.NotifyKinds},
		{settings.NotifyRoles, &ent.NotifyRoles},
	} {
		data, err := json.Marshal(field.list)
		if err != nil {
			return err
		}
		*field.into = string(data)
	}
	data, err := json.Marshal(ent)
	if err != nil {
		return err
	}
	_, err = s.settingsTable.UpsertEntity(ctx, data, &aztables.UpsertEntityOptions{UpdateMode: aztables.UpdateModeReplace})
	return err
}

// EnqueueNotification sends a notification message to the queue.
func (s *Storage) EnqueueNotification(ctx context.Context, n domain.Notification) error {
	data, err := json.Marshal(n)
	if err != nil {
		return err
	}
	_, err = s.notifyQueue.EnqueueMessage(ctx, string(data), nil)
	return err
}

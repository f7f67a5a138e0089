package database

import (
	"context"
)

const createNotification = `-- name: CreateNotification :one
INSERT INTO notifications (room, title, description)
VALUES ($1, $2, $3)
RETURNING id, room, title, description, created_at`

type CreateNotificationParams struct {
	Room        string
	Title       string
	Description string
}

func (q *Queries) CreateNotification(ctx context.Context, arg CreateNotificationParams) (Notification, error) {
	row := q.db.QueryRow(ctx, createNotification, arg.Room, arg.Title, arg.Description)
	var i Notification
	err := row.Scan(&i.ID, &i.Room, &i.Title, &i.Description, &i.CreatedAt)
	return i, err
}

const listNotificationsByRooms = `-- name: ListNotificationsByRooms :many
SELECT id, room, title, description, created_at FROM notifications
WHERE room = ANY($1::text[])
ORDER BY created_at DESC
LIMIT $2`

type ListNotificationsByRoomsParams struct {
	Rooms []string
	Limit int32
}

func (q *Queries) ListNotificationsByRooms(ctx context.Context, arg ListNotificationsByRoomsParams) ([]Notification, error) {
	rows, err := q.db.Query(ctx, listNotificationsByRooms, arg.Rooms, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Notification{}
	for rows.Next() {
		var i Notification
		if err := rows.Scan(&i.ID, &i.Room, &i.Title, &i.Description, &i.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

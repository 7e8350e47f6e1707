package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
)

func init() {
	m.Register(func(app core.App) error {
		users, err := app.FindCollectionByNameOrId("users")
		if err != nil {
			return err
		}
		events, err := app.FindCollectionByNameOrId("events")
		if err != nil {
			return err
		}
		checkouts, err := app.FindCollectionByNameOrId("checkouts")
		if err != nil {
			return err
		}

		collection := core.NewBaseCollection("tickets")

		collection.Fields.Add(
			&core.RelationField{Name: "user_id", CollectionId: users.Id, Required: true, MaxSelect: 1},
			&core.RelationField{Name: "event_id", CollectionId: events.Id, Required: true, MaxSelect: 1},
			&core.RelationField{Name: "checkout_id", CollectionId: checkouts.Id, Required: true, MaxSelect: 1},
			&core.FileField{
				Name:      "qr_code",
				MaxSelect: 1,
				MaxSize:   1 << 20,
				MimeTypes: []string{"image/png"},
			},
			&core.BoolField{Name: "is_verified"},
			&core.DateField{Name: "verified_at"},
			&core.AutodateField{Name: "created", OnCreate: true},
			&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true},
		)

		return app.Save(collection)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("tickets")
		if err != nil {
			return err
		}
		return app.Delete(collection)
	})
}

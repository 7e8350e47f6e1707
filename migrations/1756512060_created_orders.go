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

		collection := core.NewBaseCollection("orders")

		collection.Fields.Add(
			&core.RelationField{Name: "user_id", CollectionId: users.Id, Required: true, MaxSelect: 1},
			&core.RelationField{Name: "event_id", CollectionId: events.Id, Required: true, MaxSelect: 1},
			&core.TextField{Name: "ticket_type_id"},
			&core.NumberField{Name: "quantity", Required: true, OnlyInt: true},
			&core.NumberField{Name: "discount_percent", OnlyInt: true},
			&core.NumberField{Name: "total_after_discount"},
			&core.SelectField{
				Name:      "payment_status",
				Required:  true,
				MaxSelect: 1,
				Values:    []string{"pending", "paid", "cancelled", "failed"},
			},
			&core.TextField{Name: "session_id"},
			&core.AutodateField{Name: "created", OnCreate: true},
			&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true},
		)

		return app.Save(collection)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("orders")
		if err != nil {
			return err
		}
		return app.Delete(collection)
	})
}

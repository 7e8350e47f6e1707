package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
)

func init() {
	m.Register(func(app core.App) error {
		collection := core.NewBaseCollection("events")

		collection.Fields.Add(
			&core.TextField{Name: "title", Required: true},
			&core.EditorField{Name: "description"},
			&core.TextField{Name: "venue"},
			&core.DateField{Name: "starts_at"},
			&core.TextField{Name: "ticket_type_id"},
			&core.TextField{Name: "ticket_title"},
			&core.NumberField{Name: "ticket_price", Required: true},
			&core.NumberField{Name: "ticket_quantity", OnlyInt: true},
			&core.NumberField{Name: "tickets_available", OnlyInt: true},
			&core.NumberField{Name: "tickets_sold", OnlyInt: true},
			&core.NumberField{Name: "total_revenue"},
			&core.AutodateField{Name: "created", OnCreate: true},
			&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true},
		)

		return app.Save(collection)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("events")
		if err != nil {
			return err
		}
		return app.Delete(collection)
	})
}

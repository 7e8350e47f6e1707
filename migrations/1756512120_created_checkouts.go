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
		orders, err := app.FindCollectionByNameOrId("orders")
		if err != nil {
			return err
		}

		collection := core.NewBaseCollection("checkouts")

		collection.Fields.Add(
			&core.RelationField{Name: "order_id", CollectionId: orders.Id, Required: true, MaxSelect: 1},
			&core.RelationField{Name: "user_id", CollectionId: users.Id, Required: true, MaxSelect: 1},
			&core.TextField{Name: "buyer_name"},
			&core.EmailField{Name: "buyer_email"},
			&core.TextField{Name: "buyer_phone"},
			&core.NumberField{Name: "amount", Required: true},
			&core.TextField{Name: "currency"},
			&core.TextField{Name: "provider"},
			&core.TextField{Name: "payment_method_brand"},
			&core.TextField{Name: "payment_method_last4"},
			&core.NumberField{Name: "payment_method_exp_month", OnlyInt: true},
			&core.NumberField{Name: "payment_method_exp_year", OnlyInt: true},
			&core.SelectField{
				Name:      "status",
				Required:  true,
				MaxSelect: 1,
				Values:    []string{"pending", "paid", "failed", "refunded", "cancelled"},
			},
			&core.TextField{Name: "transaction_id"},
			&core.TextField{Name: "reference"},
			&core.DateField{Name: "paid_at"},
			&core.AutodateField{Name: "created", OnCreate: true},
			&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true},
		)

		return app.Save(collection)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("checkouts")
		if err != nil {
			return err
		}
		return app.Delete(collection)
	})
}

package validators

import "go.mongodb.org/mongo-driver/bson"

var AppointmentValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"user_id",
			"doc_id",
			"slot_date",
			"slot_time",
			"amount",
			"booked_at",
			"cancelled",
			"is_completed",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"user_id": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},

			"doc_id": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},

			"slot_date": bson.M{
				"bsonType": "string",
				"pattern":  "^\\d{2}_\\d{2}_\\d{4}$",
			},

			"slot_time": bson.M{
				"bsonType": "string",
				"pattern":  "^([01]\\d|2[0-3]):(00|30)$",
			},

			"amount": bson.M{
				"bsonType": []string{"double", "int", "long", "decimal"},
				"minimum":  0,
			},

			"booked_at": bson.M{
				"bsonType": "date",
			},

			"cancelled": bson.M{
				"bsonType": "bool",
			},

			"cancelled_at": bson.M{
				"bsonType": "date",
			},

			"cancellation_reason": bson.M{
				"bsonType":  "string",
				"maxLength": 500,
			},

			"is_completed": bson.M{
				"bsonType": "bool",
			},

			"completed_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}

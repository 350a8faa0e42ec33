package validators

import "go.mongodb.org/mongo-driver/bson"

var PatientValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"name",
			"email",
			"password",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"name": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 100,
			},

			"email": bson.M{
				"bsonType": "string",
				"pattern":  "^[^@\\s]+@[^@\\s]+\\.[^@\\s]+$",
			},

			"password": bson.M{
				"bsonType": "string",
			},

			"phone": bson.M{
				"bsonType": "string",
				"pattern":  "^(?:|\\+[1-9]\\d{7,14})$",
			},

			"gender": bson.M{
				"enum": []string{"", "male", "female", "other"},
			},

			"date_of_birth": bson.M{
				"bsonType": "string",
				"pattern":  "^(?:|\\d{4}-\\d{2}-\\d{2})$",
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}

package validators

import "go.mongodb.org/mongo-driver/bson"

var DoctorValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"name",
			"email",
			"password",
			"speciality",
			"degree",
			"experience",
			"about",
			"fees",
			"available",
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

			"speciality": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 100,
			},

			"degree": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 100,
			},

			"experience": bson.M{
				"bsonType":  "string",
				"maxLength": 50,
			},

			"about": bson.M{
				"bsonType":  "string",
				"maxLength": 2000,
			},

			"fees": bson.M{
				"bsonType":         []string{"double", "int", "long", "decimal"},
				"exclusiveMinimum": true,
				"minimum":          0,
			},

			"available": bson.M{
				"bsonType": "bool",
			},

			// Day key -> booked times for that day. Keys follow DD_MM_YYYY,
			// values are HH:MM strings.
			"slots_booked": bson.M{
				"bsonType": "object",
				"patternProperties": bson.M{
					"^\\d{2}_\\d{2}_\\d{4}$": bson.M{
						"bsonType": "array",
						"items": bson.M{
							"bsonType": "string",
							"pattern":  "^([01]\\d|2[0-3]):(00|30)$",
						},
					},
				},
				"additionalProperties": false,
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}

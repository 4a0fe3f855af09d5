package validators

import "go.mongodb.org/mongo-driver/bson"

var BookingSeriesValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"resource_id",
			"start_time",
			"end_time",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"resource_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 120,
			},

			"start_time": bson.M{
				"bsonType": "date",
			},

			"end_time": bson.M{
				"bsonType": "date",
			},

			"recurrence_rule": bson.M{
				"bsonType": "object",
				"required": []string{"frequency"},
				"properties": bson.M{
					"frequency": bson.M{
						"bsonType": "string",
						"enum": []string{
							"DAILY",
							"WEEKLY",
							"MONTHLY",
							"YEARLY",
						},
					},
					"interval": bson.M{
						"bsonType": "int",
						"minimum":  1,
					},
					"count": bson.M{
						"bsonType": "int",
						"minimum":  0,
					},
					"until": bson.M{
						"bsonType": "date",
					},
				},
			},

			"created_at": bson.M{
				"bsonType": "date",
			},

			"updated_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}

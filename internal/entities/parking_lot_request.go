package entities

// CreateParkingLotRequest is the POST /parking-lot payload. Fee is a
// pointer so a free lot (fee 0) still counts as supplied.
type CreateParkingLotRequest struct {
	Name     string          `json:"name" validate:"required"`
	Capacity int             `json:"capacity" validate:"required,min=1"`
	Fee      *int64          `json:"fee" validate:"required"`
	Location LocationPayload `json:"location" validate:"required"`
}

type LocationPayload struct {
	Street  string       `json:"street" validate:"required"`
	City    string       `json:"city" validate:"required"`
	Country string       `json:"country" validate:"required"`
	Shape   ShapePayload `json:"shape" validate:"required"`
}

// ShapePayload carries the point coordinates as [longitude, latitude].
type ShapePayload struct {
	Coordinates []float64 `json:"coordinates" validate:"required,len=2"`
}

// UpdateParkingLotRequest is the PUT /parking-lot/{id} payload: a deep
// partial of the create payload. Only non-nil fields are applied.
type UpdateParkingLotRequest struct {
	Name     *string         `json:"name" validate:"omitnil,min=1"`
	Capacity *int            `json:"capacity" validate:"omitnil,min=1"`
	Fee      *int64          `json:"fee"`
	Location *LocationUpdate `json:"location"`
}

type LocationUpdate struct {
	Street  *string      `json:"street" validate:"omitnil,min=1"`
	City    *string      `json:"city" validate:"omitnil,min=1"`
	Country *string      `json:"country" validate:"omitnil,min=1"`
	Shape   *ShapeUpdate `json:"shape"`
}

type ShapeUpdate struct {
	Coordinates []float64 `json:"coordinates" validate:"omitnil,len=2"`
}

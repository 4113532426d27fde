package api

// MessageResponse is the confirmation body for update/reserve/delete and
// the error body for everything but validation failures.
type MessageResponse struct {
	Message string `json:"message"`
}

type CreateParkingLotResponse struct {
	ID string `json:"id"`
}

// ValidationErrorResponse carries the per-field violation map under
// "message", matching the shape the web client expects.
type ValidationErrorResponse struct {
	Message map[string]string `json:"message"`
}

package models

// TaskStatus is the lifecycle state of a task as it appears on the wire.
type TaskStatus string

const (
	StatusNew        TaskStatus = "New"
	StatusInProgress TaskStatus = "In progress"
	StatusCompleted  TaskStatus = "Completed"
)

// ValidTaskStatuses enumerates the statuses accepted by the API.
var ValidTaskStatuses = map[TaskStatus]struct{}{
	StatusNew:        {},
	StatusInProgress: {},
	StatusCompleted:  {},
}

// User is an account that owns tasks. The bcrypt hash is kept out of JSON
// responses.
type User struct {
	ID             int64  `json:"id"`
	Username       string `json:"username"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name,omitempty"`
	HashedPassword string `json:"-"`
}

// Task belongs to exactly one user. Deleting the user removes its tasks
// through the schema's cascade rule.
type Task struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      TaskStatus `json:"status"`
	UserID      int64      `json:"user_id"`
}

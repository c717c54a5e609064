package example

type TaskStatus string

const (
	TaskStatusAssigned  TaskStatus = "assigned"
	TaskStatusCompleted TaskStatus = "completed"
)

type TaskPriority string

const (
	TaskPriorityCritical TaskPriority = "Critical"
)

type Partition string

const (
	PartitionNotification Partition = "notification"
)

type Task struct {
	Title    string
	Status   TaskStatus
	Priority TaskPriority
}

type View struct {
	Partition Partition
}

func bad() {
	t := &Task{}
	t.Status = "done" // want "enum field Status assigned string literal"

	_ = Task{
		Title:    "ok to use a literal here",
		Priority: "Urgent", // want "enum field Priority set to string literal"
	}

	v := &View{}
	v.Partition = "email" // want "enum field Partition assigned string literal"
}

func good() {
	t := &Task{Title: "fine"}
	t.Status = TaskStatusCompleted // OK: using constant

	_ = View{Partition: PartitionNotification}
}

func alsoGood() {
	// OK: Variable, not literal
	status := TaskStatusAssigned
	t := &Task{Status: status, Priority: TaskPriorityCritical}
	_ = t
}

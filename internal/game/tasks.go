package game

import "math/rand/v2"

var taskCatalog = []string{
	"Fix wiring in Electrical",
	"Empty garbage in Cafeteria",
	"Download data in Communications",
	"Fuel engines in Storage",
	"Calibrate distributor",
	"Clean O2 filter",
	"Align engine output",
	"Submit scan in MedBay",
	"Chart course in Navigation",
	"Prime shields",
}

// drawTasks picks n distinct tasks from the catalog.
func drawTasks(n int) []Task {
	if n > len(taskCatalog) {
		n = len(taskCatalog)
	}
	order := rand.Perm(len(taskCatalog))
	tasks := make([]Task, 0, n)
	for _, index := range order[:n] {
		tasks = append(tasks, Task{Name: taskCatalog[index]})
	}
	return tasks
}

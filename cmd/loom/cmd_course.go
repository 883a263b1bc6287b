package main

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/akshad113/loom-ai-instructor/internal/domain"
)

// cmdCourse manages courses
func cmdCourse(args []string) error {
	if len(args) < 1 {
		fmt.Println(`Course commands:

  loom course list         List imported courses
  loom course info <id>    Show course details and progress`)
		return nil
	}

	switch args[0] {
	case "list":
		return cmdCourseList()
	case "info":
		if len(args) < 2 {
			return fmt.Errorf("course ID required (see 'loom course list')")
		}
		return cmdCourseInfo(args[1])
	default:
		return fmt.Errorf("unknown course command: %s", args[0])
	}
}

func cmdCourseList() error {
	if !isRunning() {
		return fmt.Errorf("daemon not running (run 'loom start' first)")
	}

	resp, err := http.Get(daemonAddr + "/api/courses")
	if err != nil {
		return fmt.Errorf("get courses: %w", err)
	}
	defer resp.Body.Close()

	var courses []domain.Course
	if err := json.NewDecoder(resp.Body).Decode(&courses); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}

	if len(courses) == 0 {
		fmt.Println("No courses imported yet.")
		return nil
	}

	fmt.Println("Imported Courses:")
	for _, course := range courses {
		bar := renderProgressBar(float64(course.Progress)/100, 20)
		fmt.Printf("  %s (%s)\n", course.Title, course.ID)
		if course.Description != "" {
			fmt.Printf("    %s\n", course.Description)
		}
		fmt.Printf("    %s %d%% | Lessons: %d\n\n", bar, course.Progress, len(course.LessonIDs()))
	}

	fmt.Println("Use 'loom course info <id>' for details")
	return nil
}

func cmdCourseInfo(id string) error {
	if !isRunning() {
		return fmt.Errorf("daemon not running (run 'loom start' first)")
	}

	resp, err := http.Get(daemonAddr + "/api/courses/" + id)
	if err != nil {
		return fmt.Errorf("get course: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("course not found: %s", id)
	}

	var course domain.Course
	if err := json.NewDecoder(resp.Body).Decode(&course); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}

	fmt.Printf("%s\n", course.Title)
	if course.Description != "" {
		fmt.Printf("%s\n", course.Description)
	}
	bar := renderProgressBar(float64(course.Progress)/100, 20)
	fmt.Printf("Progress: %s %d%%\n\n", bar, course.Progress)

	for _, module := range course.Modules {
		fmt.Printf("Module: %s\n", module.Title)
		for _, lesson := range module.Lessons {
			fmt.Printf("  - %s (%s, %s)\n", lesson.Title, lesson.ID, lesson.Language)
		}
		fmt.Println()
	}

	return nil
}

package main

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/akshad113/loom-ai-instructor/internal/domain"
)

// cmdStats shows a learning progress summary across all courses
func cmdStats() error {
	if !isRunning() {
		return fmt.Errorf("daemon not running (run 'loom start' first)")
	}

	courses, err := fetchCourses()
	if err != nil {
		return err
	}

	completed, err := fetchCompletedSteps()
	if err != nil {
		return err
	}

	fmt.Println("Learning Progress")
	fmt.Println("=================")

	if len(courses) == 0 {
		fmt.Println("No courses imported yet. Import one first!")
		return nil
	}

	totalLessons := 0
	for _, course := range courses {
		totalLessons += len(course.LessonIDs())
	}

	fmt.Printf("Courses:         %d\n", len(courses))
	fmt.Printf("Lessons:         %d\n", totalLessons)
	fmt.Printf("Steps completed: %d of %d\n\n", completed, totalLessons*domain.StepsPerLesson)

	fmt.Println("By Course")
	fmt.Println("---------")
	for _, course := range courses {
		bar := renderProgressBar(float64(course.Progress)/100, 20)
		fmt.Printf("%-30s %s %d%%\n", course.Title, bar, course.Progress)
	}

	return nil
}

func fetchCourses() ([]domain.Course, error) {
	resp, err := http.Get(daemonAddr + "/api/courses")
	if err != nil {
		return nil, fmt.Errorf("get courses: %w", err)
	}
	defer resp.Body.Close()

	var courses []domain.Course
	if err := json.NewDecoder(resp.Body).Decode(&courses); err != nil {
		return nil, fmt.Errorf("parse courses: %w", err)
	}
	return courses, nil
}

func fetchCompletedSteps() (int, error) {
	resp, err := http.Get(daemonAddr + "/api/progress")
	if err != nil {
		return 0, fmt.Errorf("get progress: %w", err)
	}
	defer resp.Body.Close()

	var rows []domain.StepProgress
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return 0, fmt.Errorf("parse progress: %w", err)
	}

	completed := 0
	for _, p := range rows {
		if p.Status == domain.StatusCompleted {
			completed++
		}
	}
	return completed, nil
}

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"os"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/term"

	"student_tracking/backend/internal/admin"
	"student_tracking/backend/internal/auth"
	"student_tracking/backend/internal/grade"
	"student_tracking/backend/internal/shared"
	"student_tracking/backend/internal/store"
)

const (
	// Common Credentials
	CommonPassword = "password123"
	AdminEmail     = "admin@univ.ma"

	// Current Academic Period
	AcademicYear = "2024-2025"

	coursesPerStudent = 5
)

// TeacherSeed describes one seeded teacher account
type TeacherSeed struct {
	TeacherID  string
	Name       string
	Department string
}

// CourseSeed describes one seeded course and the teacher that owns it
type CourseSeed struct {
	CourseID   string
	Name       string
	Code       string
	Credits    int
	Semester   string
	TeacherIdx int
}

var teacherSeeds = []TeacherSeed{
	{"T001", "Dr. Mohamed Alami", "Génie Logiciel"},
	{"T002", "Dr. Fatima Zahra Bennani", "Mathématiques Appliquées"},
	{"T003", "Dr. Youssef El Idrissi", "Réseaux et Télécommunications"},
	{"T004", "Dr. Khadija Tazi", "Intelligence Artificielle"},
	{"T005", "Dr. Rachid Chraibi", "Systèmes d'Information"},
}

var courseSeeds = []CourseSeed{
	{"C101", "Algorithmique Avancée", "INFO101", 6, "S1", 0},
	{"C102", "Génie Logiciel", "INFO102", 5, "S2", 0},
	{"C201", "Analyse Numérique", "MATH201", 4, "S1", 1},
	{"C202", "Probabilités et Statistiques", "MATH202", 4, "S2", 1},
	{"C301", "Réseaux Informatiques", "RES301", 5, "S1", 2},
	{"C302", "Sécurité des Réseaux", "RES302", 5, "S2", 2},
	{"C401", "Apprentissage Automatique", "IA401", 6, "S1", 3},
	{"C402", "Vision par Ordinateur", "IA402", 4, "S2", 3},
	{"C501", "Bases de Données", "SI501", 5, "S1", 4},
	{"C502", "Architecture des Systèmes d'Information", "SI502", 4, "S2", 4},
}

var studentNames = []string{
	"Omar Berrada", "Salma Benjelloun", "Amine Fassi", "Imane Lahlou", "Hamza Kettani",
	"Nadia Sqalli", "Mehdi Benkirane", "Sara El Amrani", "Yassine Ouazzani", "Hajar Bennis",
	"Anas Cherkaoui", "Zineb Guessous", "Karim Alaoui", "Meryem Benchekroun", "Ayoub Lazrak",
	"Ghita Squalli", "Reda Bouzidi", "Houda Filali", "Ismail Naciri", "Kawtar Skalli",
	"Adil Mernissi", "Loubna Hajji", "Soufiane Belkadi", "Asmae Tahiri", "Walid Ziani",
	"Chaimae Rami", "Badr Hassani", "Oumaima Lamrani", "Tarik Benslimane", "Rim Jettou",
}

var seededAssignments = []shared.AssignmentType{
	shared.AssignmentExam, shared.AssignmentQuiz, shared.AssignmentProject, shared.AssignmentHomework,
}

func main() {
	configPath := flag.String("config", "", "path to a config file")
	adminPassword := flag.String("admin-password", "", "password for the seeded admin (prompted when empty)")
	flag.Parse()

	log.Println("Starting Database Seeder...")

	if err := shared.LoadEnv(".env"); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	cfg, err := shared.LoadServiceConfig("seeder", *configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	client, db, err := shared.ConnectMongoDB(&cfg.MongoDB, zap.NewNop())
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer shared.DisconnectMongoDB(client, zap.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	st := store.New(client, db)

	// Drop all collections to ensure a clean start
	if err := st.Reset(ctx); err != nil {
		log.Fatalf("Failed to reset database: %v", err)
	}
	log.Println("Database cleared successfully.")

	hashed, err := auth.HashPassword(CommonPassword, cfg.Security.BCryptCost)
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}

	// --- 1. Admin ---
	seedAdmin(ctx, st, resolveAdminPassword(*adminPassword), cfg.Security.BCryptCost)

	// --- 2. Teachers & Courses ---
	teachers := seedTeachers(ctx, st, hashed)
	courses := seedCourses(ctx, st, teachers)

	// --- 3. Students, Enrollments & Grades ---
	rng := rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 42))
	seedStudents(ctx, st, hashed, courses, teachers, rng)

	log.Println("All data seeding completed successfully.")
	log.Printf("Login with %s or any seeded account (password: %s)", AdminEmail, CommonPassword)
}

// resolveAdminPassword prefers the flag, then an interactive prompt, then the common password
func resolveAdminPassword(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return CommonPassword
	}

	fmt.Print("Admin password (empty for default): ")
	raw, err := term.ReadPassword(fd)
	fmt.Println()
	if err != nil {
		log.Fatalf("Failed to read password: %v", err)
	}
	if pw := strings.TrimSpace(string(raw)); pw != "" {
		return pw
	}
	return CommonPassword
}

// ============================================================================
// SEEDING FUNCTIONS
// ============================================================================

func seedAdmin(ctx context.Context, st *store.Store, password string, cost int) {
	log.Println("--- Seeding Admin ---")
	hashed, err := auth.HashPassword(password, cost)
	if err != nil {
		log.Fatalf("Failed to hash admin password: %v", err)
	}

	a := &shared.Admin{Name: "Admin Principal", Email: AdminEmail, Password: hashed}
	if err := st.InsertAdmin(ctx, a); err != nil {
		log.Fatalf("Error seeding admin: %v", err)
	}
	log.Printf("Seeded admin: %s", a.Email)
}

func seedTeachers(ctx context.Context, st *store.Store, hashed string) []*shared.Teacher {
	log.Println("--- Seeding Teachers ---")
	teachers := make([]*shared.Teacher, 0, len(teacherSeeds))

	for _, s := range teacherSeeds {
		t := &shared.Teacher{
			TeacherID:  s.TeacherID,
			Name:       s.Name,
			Email:      admin.EmailLocalPart(s.Name) + "@univ.ma",
			Password:   hashed,
			Department: s.Department,
		}
		if err := st.InsertTeacher(ctx, t); err != nil {
			log.Fatalf("Error seeding teacher %s: %v", s.TeacherID, err)
		}
		log.Printf("Seeded teacher: %s (%s)", t.Email, t.TeacherID)
		teachers = append(teachers, t)
	}
	return teachers
}

func seedCourses(ctx context.Context, st *store.Store, teachers []*shared.Teacher) []*shared.Course {
	log.Println("--- Seeding Courses ---")
	courses := make([]*shared.Course, 0, len(courseSeeds))

	for _, s := range courseSeeds {
		teacherID := teachers[s.TeacherIdx].ID
		c := &shared.Course{
			CourseID:   s.CourseID,
			CourseName: s.Name,
			CourseCode: s.Code,
			Credits:    s.Credits,
			Semester:   s.Semester,
			Teacher:    &teacherID,
		}
		if err := st.CreateCourse(ctx, c); err != nil {
			log.Fatalf("Error seeding course %s: %v", s.Code, err)
		}
		log.Printf("Seeded course: %s (%s)", s.Code, s.CourseID)
		courses = append(courses, c)
	}
	return courses
}

func seedStudents(ctx context.Context, st *store.Store, hashed string, courses []*shared.Course, teachers []*shared.Teacher, rng *rand.Rand) {
	log.Println("--- Seeding Students, Enrollments & Grades ---")
	gradeSeq := time.Now().UnixMilli()

	for i, name := range studentNames {
		s := seedStudent(i, name, hashed, time.Now().UTC())
		if err := st.InsertStudent(ctx, s); err != nil {
			log.Fatalf("Error seeding student %s: %v", s.StudentID, err)
		}

		grades := 0
		for _, idx := range rng.Perm(len(courses))[:coursesPerStudent] {
			c := courses[idx]
			if err := st.Enroll(ctx, s.ID, c.ID); err != nil {
				log.Fatalf("Error enrolling %s in %s: %v", s.StudentID, c.CourseCode, err)
			}

			gradedBy := teachers[courseSeeds[idx].TeacherIdx].ID
			for _, kind := range seededAssignments {
				gradeSeq++
				if err := st.InsertGrade(ctx, randomGrade(rng, gradeSeq, s.ID, c.ID, gradedBy, kind)); err != nil {
					log.Fatalf("Error seeding grade for %s: %v", s.StudentID, err)
				}
				grades++
			}
		}
		log.Printf("Seeded student: %s (%s), %d grades", s.Email, s.StudentID, grades)
	}
}

func seedStudent(i int, name, hashed string, now time.Time) *shared.Student {
	return &shared.Student{
		StudentID:    fmt.Sprintf("S2024%d", 100+i),
		Name:         name,
		Email:        admin.EmailLocalPart(name) + "@" + admin.StudentEmailDomain,
		Password:     hashed,
		AcademicYear: AcademicYear,
		CreatedAt:    now,
	}
}

// randomGrade scores between 5 and 20 out of 20 in half-point steps
func randomGrade(rng *rand.Rand, seq int64, student, course, gradedBy primitive.ObjectID, kind shared.AssignmentType) *shared.Grade {
	score := 5 + float64(rng.IntN(31))*0.5
	const maxScore = 20.0
	return &shared.Grade{
		GradeID:        fmt.Sprintf("G%d", seq),
		Student:        student,
		Course:         course,
		AssignmentType: kind,
		Score:          score,
		MaxScore:       maxScore,
		Percentage:     grade.Percentage(score, maxScore),
		GradedBy:       gradedBy,
		DateGraded:     time.Now().AddDate(0, 0, -rng.IntN(60)),
	}
}

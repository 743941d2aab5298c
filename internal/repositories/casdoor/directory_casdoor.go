package casdoor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/redis/go-redis/v9"

	"github.com/EduForge-2025/authoring-service/internal/models"
)

// Config holds the configuration for the Casdoor connection.
type Config struct {
	Endpoint         string
	ClientID         string
	ClientSecret     string
	Certificate      string
	OrganizationName string
	ApplicationName  string
}

// Directory reads users and the student roster from Casdoor. It implements
// both the UserRepository and StudentRepository interfaces since both views
// come from the same identity store.
type Directory struct {
	client *casdoorsdk.Client
	redis  *redis.Client
	config Config

	cachePrefix string
	cacheTTL    time.Duration
}

func NewDirectory(config Config, redisClient *redis.Client) *Directory {
	client := casdoorsdk.NewClient(
		config.Endpoint,
		config.ClientID,
		config.ClientSecret,
		config.Certificate,
		config.OrganizationName,
		config.ApplicationName,
	)

	return &Directory{
		client:      client,
		redis:       redisClient,
		config:      config,
		cachePrefix: "directory:",
		cacheTTL:    15 * time.Minute,
	}
}

// ===== CACHE HELPERS =====

func (d *Directory) cacheKey(key string) string {
	return d.cachePrefix + key
}

func (d *Directory) getCached(ctx context.Context, key string, dest interface{}) bool {
	if d.redis == nil {
		return false
	}
	data, err := d.redis.Get(ctx, d.cacheKey(key)).Result()
	if err != nil {
		return false
	}
	return json.Unmarshal([]byte(data), dest) == nil
}

func (d *Directory) setCached(ctx context.Context, key string, value interface{}) {
	if d.redis == nil {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	d.redis.Set(ctx, d.cacheKey(key), data, d.cacheTTL)
}

// ===== CONVERSION =====

func (d *Directory) convertUser(casdoorUser *casdoorsdk.User) *models.User {
	if casdoorUser == nil {
		return nil
	}
	return &models.User{
		ID:       casdoorUser.Id,
		FullName: casdoorUser.DisplayName,
		Email:    casdoorUser.Email,
		Role:     d.convertRole(casdoorUser),
	}
}

func (d *Directory) convertRole(casdoorUser *casdoorsdk.User) models.UserRole {
	var roles []models.UserRole
	for _, role := range casdoorUser.Roles {
		mapped := mapRoleName(role.Name)
		if !slices.Contains(roles, mapped) {
			roles = append(roles, mapped)
		}
	}
	if casdoorUser.IsAdmin || slices.Contains(roles, models.RoleAdmin) {
		return models.RoleAdmin
	}
	if len(roles) == 0 {
		return models.RoleStudent
	}
	return roles[0]
}

func mapRoleName(name string) models.UserRole {
	switch strings.ToLower(name) {
	case "teacher", "instructor":
		return models.RoleTeacher
	case "admin", "administrator":
		return models.RoleAdmin
	default:
		return models.RoleStudent
	}
}

// convertStudent maps a Casdoor user onto the roster view. Cohort fields
// ride in the user's custom properties; Affiliation carries the college.
func (d *Directory) convertStudent(casdoorUser *casdoorsdk.User) *models.StudentRef {
	if casdoorUser == nil {
		return nil
	}

	registrationNo := casdoorUser.Properties["registration_no"]
	if registrationNo == "" {
		registrationNo = casdoorUser.Name
	}
	year, _ := strconv.Atoi(casdoorUser.Properties["year"])

	return &models.StudentRef{
		RegistrationNo: registrationNo,
		Name:           casdoorUser.DisplayName,
		Email:          casdoorUser.Email,
		College:        casdoorUser.Affiliation,
		Department:     casdoorUser.Properties["department"],
		Year:           year,
	}
}

// ===== USER REPOSITORY =====

func (d *Directory) GetByID(ctx context.Context, id string) (*models.User, error) {
	key := fmt.Sprintf("user:id:%s", id)
	var cached models.User
	if d.getCached(ctx, key, &cached) {
		return &cached, nil
	}

	casdoorUser, err := d.client.GetUserByUserId(id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user from directory: %w", err)
	}
	if casdoorUser == nil {
		return nil, fmt.Errorf("user not found with ID %s", id)
	}

	user := d.convertUser(casdoorUser)
	d.setCached(ctx, key, user)
	return user, nil
}

func (d *Directory) HasRole(ctx context.Context, id string, role models.UserRole) (bool, error) {
	user, err := d.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	return user.Role == role, nil
}

// ===== STUDENT REPOSITORY =====

// List returns the full student roster. The roster is cached as a whole
// since the directory changes rarely relative to how often it is browsed.
func (d *Directory) List(ctx context.Context) ([]*models.StudentRef, error) {
	var cached []*models.StudentRef
	if d.getCached(ctx, "students:all", &cached) {
		return cached, nil
	}

	casdoorUsers, err := d.client.GetUsers()
	if err != nil {
		return nil, fmt.Errorf("failed to list students from directory: %w", err)
	}

	students := make([]*models.StudentRef, 0, len(casdoorUsers))
	for _, casdoorUser := range casdoorUsers {
		if d.convertRole(casdoorUser) != models.RoleStudent {
			continue
		}
		if student := d.convertStudent(casdoorUser); student != nil {
			students = append(students, student)
		}
	}

	d.setCached(ctx, "students:all", students)
	return students, nil
}

// GetByRegistrationNos resolves registration numbers against the roster.
// Unknown numbers are silently skipped; the caller decides whether an empty
// result is an error.
func (d *Directory) GetByRegistrationNos(ctx context.Context, registrationNos []string) ([]*models.StudentRef, error) {
	if len(registrationNos) == 0 {
		return nil, nil
	}

	students, err := d.List(ctx)
	if err != nil {
		return nil, err
	}

	want := make(map[string]bool, len(registrationNos))
	for _, no := range registrationNos {
		want[no] = true
	}

	var out []*models.StudentRef
	for _, student := range students {
		if want[student.RegistrationNo] {
			out = append(out, student)
		}
	}
	return out, nil
}

// InvalidateRoster drops the cached roster, forcing the next List to hit the
// directory.
func (d *Directory) InvalidateRoster(ctx context.Context) error {
	if d.redis == nil {
		return nil
	}
	err := d.redis.Del(ctx, d.cacheKey("students:all")).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	return nil
}

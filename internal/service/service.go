package service

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gitlab.com/dirk.krummacker/users-service/internal/config"
	"gitlab.com/dirk.krummacker/users-service/internal/logger"
	"gitlab.com/dirk.krummacker/users-service/internal/model"
	"gitlab.com/dirk.krummacker/users-service/internal/repository"
	"gitlab.com/dirk.krummacker/users-service/internal/store"
	"gitlab.com/dirk.krummacker/users-service/internal/workflow"
)

// Service owns the repositories and workflows behind the REST API. It holds no mutable state of
// its own, so one instance serves all requests concurrently.
type Service struct {
	users     *repository.UserRepo
	contacts  *repository.ContactRepo
	workflows *workflow.Workflows
	log       *logger.Logger
}

// SetupService initializes the sqlx database wrapper with the specified sql database and builds
// the repositories and workflows on top of it. The database argument can be a real database for
// production use or a mock database within unit tests.
func SetupService(sqlDB *sql.DB, log *logger.Logger) *Service {
	db := store.Wrap(sqlDB)
	users := repository.NewUserRepo(db, log)
	contacts := repository.NewContactRepo(db, log)
	return &Service{
		users:     users,
		contacts:  contacts,
		workflows: workflow.New(store.NewGateway(db, log), users, contacts, log),
		log:       log.With("component", "Service"),
	}
}

// SetupHttpRouter initializes the REST API router and registers all endpoints.
func (s *Service) SetupHttpRouter(cfg config.Config) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	if cfg.GinLogging {
		router.Use(RequestLogger(s.log))
	} else {
		s.log.Info("Turning off HTTP request logging.")
	}
	router.Use(CORS(cfg.CORSOrigins))

	router.GET("/users", s.findUsers)
	router.POST("/users", s.createUser)
	router.GET("/users/:id", s.findUserByID)
	router.PUT("/users/:id", s.updateUserByID)
	router.DELETE("/users/:id", s.deleteUserByID)

	router.GET("/contacts", s.findContacts)
	router.GET("/contacts/:id", s.findContactByID)
	router.PUT("/contacts/:id", s.updateContactByID)
	router.DELETE("/contacts/:id", s.deleteContactByID)
	return router
}

// findUsers responds with the list of all users as JSON.
//
// Example REST API call:
//
//	> curl http://localhost:8080/users
func (s *Service) findUsers(c *gin.Context) {
	users, err := s.users.FindAll(c.Request.Context(), nil)
	if err != nil {
		s.respondError(c, "user", err)
		return
	}
	c.IndentedJSON(http.StatusOK, users)
}

// createUser inserts the user and the contact specified in the request's JSON into the database
// within one transaction. It responds with the user including the newly generated id.
//
// Example REST API call:
//
//	> curl http://localhost:8080/users --request "POST" --include --header "Content-Type: application/json" --data '{"name": "Ana", "genre": "F", "email": "ana@x.com"}'
func (s *Service) createUser(c *gin.Context) {
	var newUser model.NewUser
	if err := c.ShouldBindJSON(&newUser); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "invalid JSON"})
		return
	}
	if newUser.Genre.Code() == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "invalid genre"})
		return
	}
	user, err := s.workflows.CreateUserWithContact(c.Request.Context(), newUser.Name, newUser.Genre, newUser.Email)
	if err != nil {
		s.respondError(c, "user", err)
		return
	}
	c.IndentedJSON(http.StatusCreated, user)
}

// findUserByID responds with the user whose id matches the id parameter of the request URL,
// together with the email of its contact.
//
// Example REST API call:
//
//	> curl http://localhost:8080/users/0b6f3a52-91d4-4f0e-8c2b-7e5d1a9c3f11
func (s *Service) findUserByID(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	user, err := s.workflows.GetUserWithContact(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, "user", err)
		return
	}
	c.IndentedJSON(http.StatusOK, user)
}

// updateUserByID updates the user whose id matches the id parameter of the request URL and its
// contact with the values specified in the JSON (and only those). It responds with the new
// version of the user including the email.
//
// Example REST API calls:
//
//	> curl http://localhost:8080/users/0b6f3a52-91d4-4f0e-8c2b-7e5d1a9c3f11 --request "PUT" --include --header "Content-Type: application/json" --data '{"email": "ana2@x.com"}'
//	> curl http://localhost:8080/users/0b6f3a52-91d4-4f0e-8c2b-7e5d1a9c3f11 --request "PUT" --include --header "Content-Type: application/json" --data '{"name": "Bea", "genre": "F"}'
func (s *Service) updateUserByID(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var patch model.UserPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "invalid JSON"})
		return
	}
	user, contact, err := s.workflows.UpdateUserAndContact(c.Request.Context(), id, patch)
	if err != nil {
		s.respondError(c, "user", err)
		return
	}
	c.IndentedJSON(http.StatusOK, model.Join(*user, *contact))
}

// deleteUserByID deletes the user whose id matches the id parameter of the request URL, together
// with its contact.
//
// Example REST API call:
//
//	> curl http://localhost:8080/users/0b6f3a52-91d4-4f0e-8c2b-7e5d1a9c3f11 --request "DELETE"
func (s *Service) deleteUserByID(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := s.workflows.DeleteUser(c.Request.Context(), id); err != nil {
		s.respondError(c, "user", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// findContacts responds with the list of all contacts as JSON.
func (s *Service) findContacts(c *gin.Context) {
	contacts, err := s.contacts.FindAll(c.Request.Context(), nil)
	if err != nil {
		s.respondError(c, "contact", err)
		return
	}
	c.IndentedJSON(http.StatusOK, contacts)
}

// findContactByID responds with the contact whose id matches the id parameter of the request URL.
func (s *Service) findContactByID(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	contact, err := s.contacts.FindByID(c.Request.Context(), nil, id)
	if err != nil {
		s.respondError(c, "contact", err)
		return
	}
	c.IndentedJSON(http.StatusOK, contact)
}

// updateContactByID updates the email of the contact whose id matches the id parameter of the
// request URL.
//
// Example REST API call:
//
//	> curl http://localhost:8080/contacts/c47e9d10-2a3b-4c5d-8e6f-708192a3b4c5 --request "PUT" --include --header "Content-Type: application/json" --data '{"email": "ana2@x.com"}'
func (s *Service) updateContactByID(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var patch model.ContactPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "invalid JSON"})
		return
	}
	contact, err := s.contacts.Update(c.Request.Context(), nil, id, patch)
	if err != nil {
		s.respondError(c, "contact", err)
		return
	}
	c.IndentedJSON(http.StatusOK, contact)
}

// deleteContactByID deletes the contact whose id matches the id parameter of the request URL.
// Contacts that still belong to a user are only deleted together with the user.
func (s *Service) deleteContactByID(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := s.workflows.DeleteContact(c.Request.Context(), id); err != nil {
		s.respondError(c, "contact", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// parseID reads the id parameter of the request URL. Ids that are not UUIDs cannot exist, so they
// are answered with NOT FOUND without asking the database.
func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": "invalid id parameter"})
		return uuid.Nil, false
	}
	return id, true
}

// respondError maps an error of the lower layers onto an HTTP status and a message.
func (s *Service) respondError(c *gin.Context, entity string, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": entity + " not found"})
	case errors.Is(err, store.ErrContactInUse):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"message": err.Error()})
	default:
		s.log.Error("request failed", "path", c.FullPath(), "error", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
	}
}

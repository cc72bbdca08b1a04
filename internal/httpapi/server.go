/**
 * HTTP surface for the sign-up wizard.
 *
 * The front-end walks the wizard: start a registration, upload (or
 * camera-capture) the ID image, poll the extraction status, submit the
 * reviewed identity form, fill the remaining steps, then complete. File
 * constraints are enforced here so an invalid upload never reaches the
 * extraction pipeline.
 */

package httpapi

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/goldengeneration/signup-service/internal/apperrors"
	"github.com/goldengeneration/signup-service/internal/logging"
	"github.com/goldengeneration/signup-service/internal/pipeline"
	"github.com/goldengeneration/signup-service/internal/queue"
	"github.com/goldengeneration/signup-service/internal/signup"
	"github.com/goldengeneration/signup-service/internal/storage"
)

// Server wires the wizard routes to storage and the extraction queue.
type Server struct {
	store          *storage.RegistrationStore
	cache          *storage.ExtractionCache
	enqueuer       *queue.Enqueuer
	log            *logging.Logger
	maxUploadBytes int64
	router         *gin.Engine
}

// ServerConfig holds HTTP server dependencies.
type ServerConfig struct {
	Store          *storage.RegistrationStore
	Cache          *storage.ExtractionCache
	Enqueuer       *queue.Enqueuer
	Logger         *logging.Logger
	MaxUploadBytes int64
}

// NewServer builds the gin router.
func NewServer(cfg *ServerConfig) *Server {
	s := &Server{
		store:          cfg.Store,
		cache:          cfg.Cache,
		enqueuer:       cfg.Enqueuer,
		log:            cfg.Logger,
		maxUploadBytes: cfg.MaxUploadBytes,
	}

	r := gin.New()
	r.Use(gin.Recovery())

	api := r.Group("/api")
	{
		api.GET("/health", s.health)

		api.POST("/signup", s.startSignup)
		api.POST("/signup/:id/id-document", s.uploadIDDocument)
		api.GET("/signup/:id/id-document", s.getExtractionStatus)
		api.PUT("/signup/:id/identity", s.putIdentity)
		api.PUT("/signup/:id/credentials", s.putCredentials)
		api.PUT("/signup/:id/steps/:step", s.putStep)
		api.POST("/signup/:id/complete", s.completeSignup)

		api.GET("/users/:id", s.getUser)
	}

	s.router = r
	return s
}

// Handler exposes the router for the HTTP server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) health(c *gin.Context) {
	if err := s.store.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) startSignup(c *gin.Context) {
	id, err := s.store.CreateRegistration(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"registrationId": id})
}

// uploadIDDocument validates the file, then hands the image to the
// extraction queue. The response is immediate; the client polls for the
// extracted fields.
func (s *Server) uploadIDDocument(c *gin.Context) {
	regID := c.Param("id")
	if _, err := s.store.GetRegistration(c.Request.Context(), regID); err != nil {
		s.fail(c, err)
		return
	}

	file, err := c.FormFile("image")
	if err != nil {
		s.fail(c, apperrors.NewValidationError("image", "an image file is required"))
		return
	}

	contentType := file.Header.Get("Content-Type")
	if err := signup.ValidateUpload(contentType, file.Size, s.maxUploadBytes); err != nil {
		s.fail(c, err)
		return
	}

	source := pipeline.ImageSource(c.PostForm("source"))
	if source != pipeline.SourceCamera {
		source = pipeline.SourceUpload
	}

	f, err := file.Open()
	if err != nil {
		s.fail(c, apperrors.NewValidationError("image", "uploaded file could not be read"))
		return
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, s.maxUploadBytes+1))
	if err != nil || int64(len(data)) > s.maxUploadBytes {
		s.fail(c, apperrors.NewValidationError("image", "uploaded file could not be read"))
		return
	}

	if err := s.cache.SetStatus(c.Request.Context(), regID, &storage.ExtractionStatus{
		State: storage.ExtractionQueued,
	}); err != nil {
		s.fail(c, err)
		return
	}

	err = s.enqueuer.EnqueueExtraction(c.Request.Context(), &queue.ExtractTask{
		RegistrationID: regID,
		Filename:       file.Filename,
		MimeType:       contentType,
		Source:         source,
		Image:          data,
	})
	if err != nil {
		s.fail(c, err)
		return
	}

	s.log.Info("id document accepted", "registration", regID, "source", source, "bytes", len(data))
	c.JSON(http.StatusAccepted, gin.H{"state": storage.ExtractionQueued})
}

func (s *Server) getExtractionStatus(c *gin.Context) {
	status, err := s.cache.GetStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

func (s *Server) putIdentity(c *gin.Context) {
	var form signup.IdentityForm
	if err := c.ShouldBindJSON(&form); err != nil {
		s.fail(c, apperrors.NewValidationError("body", "request body must be a valid identity form"))
		return
	}

	if err := signup.ValidateIdentity(&form); err != nil {
		s.fail(c, err)
		return
	}

	payload, err := json.Marshal(form)
	if err != nil {
		s.fail(c, apperrors.NewStorageError("encode identity", err))
		return
	}

	if err := s.store.SaveIdentity(c.Request.Context(), c.Param("id"), payload); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"saved": true})
}

func (s *Server) putCredentials(c *gin.Context) {
	var creds signup.Credentials
	if err := c.ShouldBindJSON(&creds); err != nil {
		s.fail(c, apperrors.NewValidationError("body", "request body must be valid credentials"))
		return
	}

	if err := signup.ValidateCredentials(&creds); err != nil {
		s.fail(c, err)
		return
	}

	ctx := c.Request.Context()
	if used, err := s.store.EmailInUse(ctx, creds.Email); err != nil {
		s.fail(c, err)
		return
	} else if used {
		s.fail(c, apperrors.NewConflictError("email is already in use"))
		return
	}
	if used, err := s.store.UsernameInUse(ctx, creds.Username); err != nil {
		s.fail(c, err)
		return
	} else if used {
		s.fail(c, apperrors.NewConflictError("username is already taken"))
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(creds.Password), bcrypt.DefaultCost)
	if err != nil {
		s.fail(c, apperrors.NewStorageError("hash password", err))
		return
	}

	if err := s.store.SaveCredentials(ctx, c.Param("id"), creds.Email, creds.Username, string(hash)); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"saved": true})
}

// putStep stores one of the remaining wizard steps. Known steps are bound
// to their typed payloads so malformed bodies are rejected; the veterans
// form is free-form and stored as submitted.
func (s *Server) putStep(c *gin.Context) {
	step := c.Param("step")

	var payload json.RawMessage
	switch step {
	case signup.StepPersonal:
		var p signup.PersonalDetails
		if err := c.ShouldBindJSON(&p); err != nil {
			s.fail(c, apperrors.NewValidationError("body", "invalid personal details payload"))
			return
		}
		if p.Address == "" || p.PhoneNumber == "" || p.NativeLanguage == "" {
			s.fail(c, apperrors.NewValidationError("body",
				"address, phone number and native language are required"))
			return
		}
		payload, _ = json.Marshal(p)
	case signup.StepWork:
		var p signup.WorkBackground
		if err := c.ShouldBindJSON(&p); err != nil {
			s.fail(c, apperrors.NewValidationError("body", "invalid work background payload"))
			return
		}
		payload, _ = json.Marshal(p)
	case signup.StepLifestyle:
		var p signup.Lifestyle
		if err := c.ShouldBindJSON(&p); err != nil {
			s.fail(c, apperrors.NewValidationError("body", "invalid lifestyle payload"))
			return
		}
		payload, _ = json.Marshal(p)
	case signup.StepVeterans:
		var p signup.VeteransCommunity
		if err := c.ShouldBindJSON(&p); err != nil {
			s.fail(c, apperrors.NewValidationError("body", "invalid veterans community payload"))
			return
		}
		payload, _ = json.Marshal(p)
	default:
		s.fail(c, apperrors.NewValidationError("step", "unknown wizard step: "+step))
		return
	}

	if err := s.store.SaveStep(c.Request.Context(), c.Param("id"), step, payload); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"saved": true})
}

func (s *Server) completeSignup(c *gin.Context) {
	userID, err := s.store.CompleteRegistration(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"userId": userID})
}

func (s *Server) getUser(c *gin.Context) {
	user, err := s.store.GetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":        user.ID,
		"email":     user.Email,
		"username":  user.Username,
		"profile":   json.RawMessage(user.Profile),
		"createdAt": user.CreatedAt,
	})
}

// fail maps the error taxonomy onto HTTP statuses.
func (s *Server) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch apperrors.CodeOf(err) {
	case apperrors.CodeValidationFailed:
		status = http.StatusBadRequest
	case apperrors.CodeNotFound:
		status = http.StatusNotFound
	case apperrors.CodeConflict:
		status = http.StatusConflict
	case apperrors.CodeRecognitionFailed:
		status = http.StatusBadGateway
	}

	if status == http.StatusInternalServerError {
		s.log.Error("request failed", "path", c.FullPath(), "error", err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

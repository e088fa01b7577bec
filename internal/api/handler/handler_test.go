package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"resolvenow/backend/internal/api/handler"
	"resolvenow/backend/internal/assignment"
	"resolvenow/backend/internal/auth"
	"resolvenow/backend/internal/chathub"
	"resolvenow/backend/internal/complaint"
	"resolvenow/backend/internal/feedback"
	"resolvenow/backend/internal/messaging"
	"resolvenow/backend/internal/models"
	"resolvenow/backend/internal/storage"
	"resolvenow/backend/internal/storage/storagetest"
	"resolvenow/backend/internal/uploads"
	"resolvenow/backend/internal/users"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type testEnv struct {
	router *gin.Engine
	store  *storage.Service
	auth   *auth.Service
	hub    *chathub.ManagerService
	// uploads is the directory behind /uploads.
	uploads string
}

func newTestEnv(t *testing.T, limiter *handler.RateLimiter) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := zap.NewNop()
	store := storagetest.New(t)

	hub := chathub.NewManagerService(log)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	dir := t.TempDir()
	local, err := uploads.NewLocalStore(dir, "/uploads")
	require.NoError(t, err)

	authSvc := auth.NewService(store, auth.NewTokenManager("test-secret", time.Hour), log)
	complaints := complaint.NewService(store, hub, log)
	h := handler.NewHandler(handler.Services{
		Auth:       authSvc,
		Users:      users.NewService(store, log),
		Complaints: complaints,
		Engine:     assignment.NewEngine(store, hub, log),
		Messages:   messaging.NewService(store, complaints, complaint.Scope, hub, log),
		Feedback:   feedback.NewService(store, complaints, log),
		Uploads:    local,
		Hub:        hub,
	}, log)

	r := h.Router(handler.RouterConfig{
		AllowedOrigins:   []string{"*"},
		UploadsDir:       dir,
		UploadsURLPrefix: "/uploads",
		AuthLimiter:      limiter,
	})
	return &testEnv{router: r, store: store, auth: authSvc, hub: hub, uploads: dir}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
		Code  string `json:"code"`
	}
	decode(t, w, &body)
	return body.Code
}

type session struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

func (e *testEnv) register(t *testing.T, name string, role models.Role) session {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/auth/register", "", gin.H{
		"name":     name,
		"email":    name + "@example.com",
		"password": "secret123",
		"role":     role,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var s session
	decode(t, w, &s)
	return s
}

func (e *testEnv) admin(t *testing.T) session {
	t.Helper()
	_, err := e.auth.CreateAdmin(context.Background(), "root", "root@example.com", "secret123")
	require.NoError(t, err)
	w := e.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"email": "root@example.com", "password": "secret123"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var s session
	decode(t, w, &s)
	return s
}

func (e *testEnv) fileComplaint(t *testing.T, token string) models.Complaint {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/complaints", token, gin.H{
		"name":    "No water",
		"address": "4 Lake View",
		"city":    "Pune",
		"state":   "MH",
		"pincode": "411001",
		"comment": "Supply cut since Monday",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var c models.Complaint
	decode(t, w, &c)
	return c
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, nil)
	w := env.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestScenario_AssignResolveFeedback(t *testing.T) {
	env := newTestEnv(t, nil)
	admin := env.admin(t)
	cust := env.register(t, "asha", models.RoleCustomer)
	agent := env.register(t, "ravi", models.RoleAgent)

	c := env.fileComplaint(t, cust.Token)
	assert.Equal(t, models.StatusPending, c.Status)

	w := env.do(t, http.MethodPost, "/api/assigned", admin.Token, gin.H{"complaintId": c.ID, "agentId": agent.User.ID})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var a models.Assignment
	decode(t, w, &a)
	assert.Equal(t, "ravi", a.AgentName)

	w = env.do(t, http.MethodPost, "/api/assigned", admin.Token, gin.H{"complaintId": c.ID, "agentId": agent.User.ID})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "already_assigned", errorCode(t, w))

	w = env.do(t, http.MethodGet, "/api/complaints/"+c.ID, agent.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var got models.Complaint
	decode(t, w, &got)
	assert.Equal(t, models.StatusAssigned, got.Status)

	w = env.do(t, http.MethodGet, "/api/assigned/agent/"+agent.User.ID, agent.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var views []models.AssignmentView
	decode(t, w, &views)
	require.Len(t, views, 1)
	assert.Equal(t, "asha", views[0].Owner.Name)

	w = env.do(t, http.MethodPut, "/api/complaints/"+c.ID+"/status", agent.Token, gin.H{"status": models.StatusInProgress})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.do(t, http.MethodPost, "/api/feedback", cust.Token, gin.H{"complaintId": c.ID, "rating": 4})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "not_resolved", errorCode(t, w))

	w = env.do(t, http.MethodPut, "/api/complaints/"+c.ID, agent.Token, gin.H{"status": models.StatusResolved})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.do(t, http.MethodPut, "/api/complaints/"+c.ID+"/status", agent.Token, gin.H{"status": models.StatusInProgress})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "invalid_transition", errorCode(t, w))

	w = env.do(t, http.MethodPost, "/api/feedback", cust.Token, gin.H{"complaintId": c.ID, "rating": 4, "comment": "fixed"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = env.do(t, http.MethodPost, "/api/feedback", cust.Token, gin.H{"complaintId": c.ID, "rating": 5})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "feedback_exists", errorCode(t, w))

	w = env.do(t, http.MethodGet, "/api/feedback/agent/"+agent.User.ID+"/summary", admin.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var summary struct {
		Count   int     `json:"count"`
		Average float64 `json:"average"`
	}
	decode(t, w, &summary)
	assert.Equal(t, 1, summary.Count)
	assert.Equal(t, 4.0, summary.Average)
}

func TestAssign_AgentCapacity(t *testing.T) {
	env := newTestEnv(t, nil)
	admin := env.admin(t)
	cust := env.register(t, "asha", models.RoleCustomer)
	busy := env.register(t, "ravi", models.RoleAgent)
	idle := env.register(t, "meera", models.RoleAgent)

	for i := 0; i < 3; i++ {
		c := env.fileComplaint(t, cust.Token)
		w := env.do(t, http.MethodPost, "/api/assigned", admin.Token, gin.H{"complaintId": c.ID, "agentId": busy.User.ID})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	fourth := env.fileComplaint(t, cust.Token)
	w := env.do(t, http.MethodPost, "/api/assigned", admin.Token, gin.H{"complaintId": fourth.ID, "agentId": busy.User.ID})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "agent_at_capacity", errorCode(t, w))

	w = env.do(t, http.MethodGet, "/api/complaints/"+fourth.ID, cust.Token, nil)
	var c models.Complaint
	decode(t, w, &c)
	assert.Equal(t, models.StatusPending, c.Status)

	w = env.do(t, http.MethodGet, "/api/auth/agents", admin.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var agents []models.AgentLoad
	decode(t, w, &agents)
	require.Len(t, agents, 2)
	assert.Equal(t, idle.User.ID, agents[0].ID)
	assert.True(t, agents[0].Selectable)
	assert.Equal(t, 3, agents[1].ActiveAssignments)
	assert.False(t, agents[1].Selectable)

	w = env.do(t, http.MethodPost, "/api/assigned", admin.Token, gin.H{"complaintId": fourth.ID, "agentId": cust.User.ID})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthGuards(t *testing.T) {
	env := newTestEnv(t, nil)
	cust := env.register(t, "asha", models.RoleCustomer)
	agent := env.register(t, "ravi", models.RoleAgent)

	w := env.do(t, http.MethodGet, "/api/complaints", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodGet, "/api/complaints", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "token_invalid", errorCode(t, w))

	w = env.do(t, http.MethodGet, "/api/users", cust.Token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodPost, "/api/complaints", agent.Token, gin.H{"name": "x"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodGet, "/api/assigned/agent/"+agent.User.ID, cust.Token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodPost, "/api/auth/register", "", gin.H{
		"name": "eve", "email": "eve@example.com", "password": "secret123", "role": models.RoleAdmin,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"email": "asha@example.com", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "invalid_credentials", errorCode(t, w))

	w = env.do(t, http.MethodPost, "/api/auth/logout", cust.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = env.do(t, http.MethodGet, "/api/users/profile", cust.Token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestComplaintVisibilityAndEdits(t *testing.T) {
	env := newTestEnv(t, nil)
	admin := env.admin(t)
	asha := env.register(t, "asha", models.RoleCustomer)
	omar := env.register(t, "omar", models.RoleCustomer)
	agent := env.register(t, "ravi", models.RoleAgent)

	c := env.fileComplaint(t, asha.Token)
	env.fileComplaint(t, omar.Token)

	w := env.do(t, http.MethodGet, "/api/complaints", asha.Token, nil)
	var list []models.Complaint
	decode(t, w, &list)
	assert.Len(t, list, 1)

	w = env.do(t, http.MethodGet, "/api/complaints", admin.Token, nil)
	decode(t, w, &list)
	assert.Len(t, list, 2)

	w = env.do(t, http.MethodGet, "/api/complaints", agent.Token, nil)
	decode(t, w, &list)
	assert.Empty(t, list)

	w = env.do(t, http.MethodGet, "/api/complaints/"+c.ID, omar.Token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodPut, "/api/complaints/"+c.ID, asha.Token, gin.H{"city": "Mumbai"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var edited models.Complaint
	decode(t, w, &edited)
	assert.Equal(t, "Mumbai", edited.City)

	w = env.do(t, http.MethodPut, "/api/complaints/"+c.ID, asha.Token, gin.H{"city": "Pune", "status": models.StatusResolved})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPut, "/api/complaints/"+c.ID+"/status", asha.Token, gin.H{"status": models.StatusResolved})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodPost, "/api/assigned", admin.Token, gin.H{"complaintId": c.ID, "agentId": agent.User.ID})
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.do(t, http.MethodPut, "/api/complaints/"+c.ID, asha.Token, gin.H{"city": "Nagpur"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "not_editable", errorCode(t, w))

	w = env.do(t, http.MethodDelete, "/api/complaints/"+c.ID, omar.Token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodDelete, "/api/complaints/"+c.ID, asha.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/api/complaints/"+c.ID, admin.Token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodGet, "/api/assigned/agent/"+agent.User.ID, admin.Token, nil)
	var views []models.AssignmentView
	decode(t, w, &views)
	assert.Empty(t, views)
}

func TestMessagingUnreadFlow(t *testing.T) {
	env := newTestEnv(t, nil)
	admin := env.admin(t)
	cust := env.register(t, "asha", models.RoleCustomer)
	other := env.register(t, "omar", models.RoleCustomer)
	agent := env.register(t, "ravi", models.RoleAgent)

	c := env.fileComplaint(t, cust.Token)
	w := env.do(t, http.MethodPost, "/api/assigned", admin.Token, gin.H{"complaintId": c.ID, "agentId": agent.User.ID})
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.do(t, http.MethodPost, "/api/messages", cust.Token, gin.H{"complaintId": c.ID, "body": "any update?"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = env.do(t, http.MethodPost, "/api/messages", other.Token, gin.H{"complaintId": c.ID, "body": "hi"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodPost, "/api/messages", cust.Token, gin.H{"complaintId": c.ID, "body": "  "})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var counts map[string]int64
	w = env.do(t, http.MethodGet, "/api/messages/unread/counts", agent.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &counts)
	assert.Equal(t, map[string]int64{c.ID: 1}, counts)

	counts = nil
	w = env.do(t, http.MethodGet, "/api/messages/unread/counts", cust.Token, nil)
	decode(t, w, &counts)
	assert.Empty(t, counts)

	w = env.do(t, http.MethodPut, "/api/messages/read/"+c.ID, agent.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var marked struct {
		Updated int64 `json:"updated"`
	}
	decode(t, w, &marked)
	assert.EqualValues(t, 1, marked.Updated)

	w = env.do(t, http.MethodPut, "/api/messages/read/"+c.ID, agent.Token, nil)
	decode(t, w, &marked)
	assert.Zero(t, marked.Updated)

	w = env.do(t, http.MethodGet, "/api/messages/"+c.ID, agent.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var msgs []models.Message
	decode(t, w, &msgs)
	require.Len(t, msgs, 1)
	assert.True(t, msgs[0].Read)
	assert.Equal(t, "asha", msgs[0].SenderName)
}

func TestCreateComplaint_Multipart(t *testing.T) {
	env := newTestEnv(t, nil)
	cust := env.register(t, "asha", models.RoleCustomer)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range map[string]string{
		"name": "Leak", "address": "9 Hill Rd", "city": "Pune", "state": "MH", "pincode": "411002", "comment": "Pipe burst",
	} {
		require.NoError(t, mw.WriteField(k, v))
	}
	fw, err := mw.CreateFormFile("attachments", "photo.png")
	require.NoError(t, err)
	_, err = fw.Write([]byte("png-bytes"))
	require.NoError(t, err)
	require.NoError(t, mw.WriteField("attachmentNames", "Kitchen"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/complaints", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+cust.Token)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var c models.Complaint
	decode(t, w, &c)
	require.Len(t, c.Attachments, 1)
	assert.Equal(t, "Kitchen", c.Attachments[0].DisplayName)
	assert.Equal(t, "photo.png", c.Attachments[0].OriginalName)
	assert.True(t, strings.HasPrefix(c.Attachments[0].Path, "/uploads/"))

	w = env.do(t, http.MethodGet, c.Attachments[0].Path, "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "png-bytes", w.Body.String())
}

func TestCreateComplaint_RejectsDisallowedFile(t *testing.T) {
	env := newTestEnv(t, nil)
	cust := env.register(t, "asha", models.RoleCustomer)

	fields := map[string]string{
		"name": "Leak", "address": "9 Hill Rd", "city": "Pune", "state": "MH", "pincode": "411002", "comment": "Pipe burst",
	}
	w := env.postForm(t, "/api/complaints", cust.Token, fields, map[string]string{"run.exe": "MZ"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "run.exe")
	env.assertNoUploads(t)
}

// postForm sends a multipart request with one "attachments" file per entry of files.
func (e *testEnv) postForm(t *testing.T, path, token string, fields, files map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for name, content := range files {
		fw, err := mw.CreateFormFile("attachments", name)
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) assertNoUploads(t *testing.T) {
	t.Helper()
	entries, err := os.ReadDir(e.uploads)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRejectedUploadsLeaveNoFiles(t *testing.T) {
	env := newTestEnv(t, nil)
	cust := env.register(t, "asha", models.RoleCustomer)
	stranger := env.register(t, "kiran", models.RoleCustomer)
	agent := env.register(t, "ravi", models.RoleAgent)
	c := env.fileComplaint(t, cust.Token)
	photo := map[string]string{"photo.png": "png-bytes"}

	w := env.postForm(t, "/api/messages", stranger.Token, map[string]string{"complaintId": c.ID, "body": "hi"}, photo)
	assert.Equal(t, http.StatusForbidden, w.Code, w.Body.String())
	env.assertNoUploads(t)

	w = env.postForm(t, "/api/messages", cust.Token, map[string]string{"complaintId": "missing"}, photo)
	assert.Equal(t, http.StatusNotFound, w.Code, w.Body.String())
	env.assertNoUploads(t)

	w = env.postForm(t, "/api/complaints", cust.Token, map[string]string{"name": "Leak", "city": "Pune"}, photo)
	assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
	env.assertNoUploads(t)

	fields := map[string]string{
		"name": "Leak", "address": "9 Hill Rd", "city": "Pune", "state": "MH", "pincode": "411002", "comment": "Pipe burst",
	}
	w = env.postForm(t, "/api/complaints", agent.Token, fields, photo)
	assert.Equal(t, http.StatusForbidden, w.Code, w.Body.String())
	env.assertNoUploads(t)

	w = env.postForm(t, "/api/messages", cust.Token, map[string]string{"complaintId": c.ID}, photo)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	entries, err := os.ReadDir(env.uploads)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestAttachmentsDefaultToEmptyList(t *testing.T) {
	env := newTestEnv(t, nil)
	cust := env.register(t, "asha", models.RoleCustomer)

	w := env.do(t, http.MethodPost, "/api/complaints", cust.Token, gin.H{
		"name": "No water", "address": "4 Lake View", "city": "Pune", "state": "MH", "pincode": "411001", "comment": "Dry taps",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"attachments":[]`)

	var c models.Complaint
	decode(t, w, &c)
	w = env.do(t, http.MethodPost, "/api/messages", cust.Token, gin.H{"complaintId": c.ID, "body": "any update?"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"attachments":[]`)

	w = env.do(t, http.MethodGet, "/api/messages/"+c.ID, cust.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"attachments":[]`)
}

func TestDeletedUserTokenIsRejected(t *testing.T) {
	env := newTestEnv(t, nil)
	admin := env.admin(t)
	cust := env.register(t, "asha", models.RoleCustomer)

	w := env.do(t, http.MethodDelete, "/api/users/"+cust.User.ID, admin.Token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.do(t, http.MethodPost, "/api/complaints", cust.Token, gin.H{
		"name": "No water", "address": "4 Lake View", "city": "Pune", "state": "MH", "pincode": "411001", "comment": "Dry taps",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "token_invalid", errorCode(t, w))
}

func TestDeleteAgentWithActiveAssignments(t *testing.T) {
	env := newTestEnv(t, nil)
	admin := env.admin(t)
	cust := env.register(t, "asha", models.RoleCustomer)
	agent := env.register(t, "ravi", models.RoleAgent)

	c := env.fileComplaint(t, cust.Token)
	w := env.do(t, http.MethodPost, "/api/assigned", admin.Token, gin.H{"complaintId": c.ID, "agentId": agent.User.ID})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = env.do(t, http.MethodDelete, "/api/users/"+agent.User.ID, admin.Token, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "conflict", errorCode(t, w))

	w = env.do(t, http.MethodPut, "/api/complaints/"+c.ID+"/status", agent.Token, gin.H{"status": models.StatusResolved})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.do(t, http.MethodDelete, "/api/users/"+agent.User.ID, admin.Token, nil)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestUsersAdministration(t *testing.T) {
	env := newTestEnv(t, nil)
	admin := env.admin(t)
	cust := env.register(t, "asha", models.RoleCustomer)

	w := env.do(t, http.MethodPut, "/api/users/profile", cust.Token, gin.H{"phone": "+91 99999"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var u models.User
	decode(t, w, &u)
	assert.Equal(t, "+91 99999", u.Phone)
	assert.Equal(t, models.RoleCustomer, u.Role)

	w = env.do(t, http.MethodGet, "/api/users", admin.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var all []models.User
	decode(t, w, &all)
	assert.Len(t, all, 2)

	w = env.do(t, http.MethodDelete, "/api/users/"+admin.User.ID, admin.Token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodDelete, "/api/users/"+cust.User.ID, admin.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodDelete, "/api/users/"+cust.User.ID, admin.Token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAuthRateLimit(t *testing.T) {
	env := newTestEnv(t, handler.NewRateLimiter(rate.Every(time.Minute), 2))

	for i := 0; i < 2; i++ {
		w := env.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"email": "x@example.com", "password": "secret123"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	}
	w := env.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"email": "x@example.com", "password": "secret123"})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "rate_limited", errorCode(t, w))
}

func TestServeWebSocket(t *testing.T) {
	env := newTestEnv(t, nil)
	cust := env.register(t, "asha", models.RoleCustomer)

	srv := httptest.NewServer(env.router)
	defer srv.Close()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"

	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	conn, _, err := websocket.DefaultDialer.Dial(fmt.Sprintf("%s?token=%s", wsURL, cust.Token), nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return env.hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	c := env.fileComplaint(t, cust.Token)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var ev models.Event
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, models.EventComplaintCreated, ev.Type)
	assert.Equal(t, c.ID, ev.ComplaintID)
	assert.Equal(t, cust.User.ID, ev.ActorID)
}

package websocket

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/yourusername/detective-api/internal/domain/entity"
)

type mockHub struct {
	mock.Mock
}

func (m *mockHub) SendJSONToRole(role string, v interface{}) error {
	return m.Called(role, v).Error(0)
}

func (m *mockHub) SendJSONToUsers(userIDs []string, v interface{}) error {
	return m.Called(userIDs, v).Error(0)
}

func TestManager_CaseUpdated_SendsToParticipants(t *testing.T) {
	hub := new(mockHub)
	manager := NewManager(hub)
	culprit, police := uint(2), uint(3)
	result := entity.CaseResultRevenge
	c := &entity.ActiveCase{ID: 10, CaseID: 5, ClientID: 1, CulpritID: &culprit, PoliceID: &police,
		Status: entity.CaseStatusResultReady, Result: &result}

	hub.On("SendJSONToUsers", []string{"1", "2", "3"}, mock.MatchedBy(func(ev Event) bool {
		data, ok := ev.Data.(CaseEventData)
		return ok && ev.Type == CASE_UPDATED &&
			data.ActiveID == 10 && data.StatusCode == "result-ready" &&
			data.Status == "결과 확인" && data.Result == "부고"
	})).Return(nil).Once()

	manager.CaseUpdated(c)

	hub.AssertExpectations(t)
}

func TestManager_CaseAvailable_TargetsRole(t *testing.T) {
	hub := new(mockHub)
	manager := NewManager(hub)
	c := &entity.ActiveCase{ID: 11, CaseID: 5, ClientID: 1, Status: entity.CaseStatusFabricated}

	hub.On("SendJSONToRole", "police", mock.MatchedBy(func(ev Event) bool {
		data, ok := ev.Data.(CaseEventData)
		return ok && ev.Type == CASE_AVAILABLE && data.Status == "조작" && data.Audience == "police"
	})).Return(nil).Once()

	manager.CaseAvailable(c, entity.RolePolice)

	hub.AssertExpectations(t)
}

func TestManager_HandleMessage_UnknownType(t *testing.T) {
	hub := new(mockHub)
	manager := NewManager(hub)
	client := &Client{UserID: "9"}

	hub.On("SendJSONToUsers", []string{"9"}, mock.MatchedBy(func(ev Event) bool {
		return ev.Type == SERVER_ERROR
	})).Return(nil).Once()

	err := manager.HandleMessage([]byte(`{"type":"nope"}`), client)

	assert.NoError(t, err)
	hub.AssertExpectations(t)
}

func TestManager_HandleMessage_InvalidJSON(t *testing.T) {
	hub := new(mockHub)
	manager := NewManager(hub)
	client := &Client{UserID: "9"}
	hub.On("SendJSONToUsers", []string{"9"}, mock.Anything).Return(nil)

	err := manager.HandleMessage([]byte(`{not json`), client)

	assert.Error(t, err)
}

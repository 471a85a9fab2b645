package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/formcraft-backend/internal/data/repos"
	types "github.com/yungbote/formcraft-backend/internal/domain"
	"github.com/yungbote/formcraft-backend/internal/domain/chat"
	"github.com/yungbote/formcraft-backend/internal/domain/forms"
	"github.com/yungbote/formcraft-backend/internal/modules/formgen"
	"github.com/yungbote/formcraft-backend/internal/pkg/dbctx"
	"github.com/yungbote/formcraft-backend/internal/platform/logger"
)

const (
	msgFormsCreated    = "I've created two new form drafts for you!"
	msgGenerationError = "I'm sorry, I encountered an error while generating your forms. Please try again."

	maxTitleRunes = 60
)

type PromptResult struct {
	Conversation     *types.Conversation   `json:"conversation"`
	UserMessage      *types.ChatMessage    `json:"user_message"`
	AssistantMessage *types.ChatMessage    `json:"assistant_message"`
	Forms            []forms.GeneratedForm `json:"forms"`
	Fallback         bool                  `json:"fallback"`
}

type ConversationService interface {
	CreateConversation(ctx context.Context, userID uuid.UUID, title string) (*types.Conversation, error)
	GetUserConversations(ctx context.Context, userID uuid.UUID) ([]*types.Conversation, error)
	UpdateConversationTitle(ctx context.Context, userID, conversationID uuid.UUID, title string) (*types.Conversation, error)
	SaveChatMessage(ctx context.Context, userID, conversationID uuid.UUID, role, content string, metadata any) (*types.ChatMessage, error)
	GetChatHistory(ctx context.Context, userID, conversationID uuid.UUID) ([]*types.ChatMessage, error)
	// SendPrompt runs one dashboard chat turn: the prompt is stored, two forms are
	// generated and saved, and the assistant's answer is stored.
	SendPrompt(ctx context.Context, userID, conversationID uuid.UUID, prompt, language string) (PromptResult, error)
}

type conversationService struct {
	log              *logger.Logger
	conversationRepo repos.ConversationRepo
	messageRepo      repos.ChatMessageRepo
	formService      FormService
	ai               formgen.Service
	now              func() time.Time
}

func NewConversationService(
	log *logger.Logger,
	conversationRepo repos.ConversationRepo,
	messageRepo repos.ChatMessageRepo,
	formService FormService,
	ai formgen.Service,
) ConversationService {
	return &conversationService{
		log:              log.With("service", "ConversationService"),
		conversationRepo: conversationRepo,
		messageRepo:      messageRepo,
		formService:      formService,
		ai:               ai,
		now:              func() time.Time { return time.Now().UTC() },
	}
}

func (s *conversationService) CreateConversation(ctx context.Context, userID uuid.UUID, title string) (*types.Conversation, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		title = chat.DefaultConversationTitle
	}
	created, err := s.conversationRepo.Create(dbctx.Context{Ctx: ctx}, []*types.Conversation{{
		UserID: userID,
		Title:  title,
	}})
	if err != nil {
		return nil, fmt.Errorf("create conversation: %w", err)
	}
	return created[0], nil
}

func (s *conversationService) GetUserConversations(ctx context.Context, userID uuid.UUID) ([]*types.Conversation, error) {
	rows, err := s.conversationRepo.ListByUserID(dbctx.Context{Ctx: ctx}, userID)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	if rows == nil {
		rows = []*types.Conversation{}
	}
	return rows, nil
}

func (s *conversationService) UpdateConversationTitle(ctx context.Context, userID, conversationID uuid.UUID, title string) (*types.Conversation, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, invalidInput("Title is required")
	}
	dbc := dbctx.Context{Ctx: ctx}
	conv, err := s.ownedConversation(dbc, userID, conversationID)
	if err != nil {
		return nil, err
	}
	if err := s.conversationRepo.UpdateTitle(dbc, conv.ID, title); err != nil {
		return nil, fmt.Errorf("update conversation title: %w", err)
	}
	conv.Title = title
	return conv, nil
}

func (s *conversationService) SaveChatMessage(ctx context.Context, userID, conversationID uuid.UUID, role, content string, metadata any) (*types.ChatMessage, error) {
	if role != chat.RoleUser && role != chat.RoleAssistant {
		return nil, invalidInput("Unknown message role")
	}
	dbc := dbctx.Context{Ctx: ctx}
	if _, err := s.ownedConversation(dbc, userID, conversationID); err != nil {
		return nil, err
	}
	return s.appendMessage(dbc, userID, conversationID, role, content, metadata)
}

func (s *conversationService) GetChatHistory(ctx context.Context, userID, conversationID uuid.UUID) ([]*types.ChatMessage, error) {
	dbc := dbctx.Context{Ctx: ctx}
	if _, err := s.ownedConversation(dbc, userID, conversationID); err != nil {
		return nil, err
	}
	rows, err := s.messageRepo.ListByConversationID(dbc, conversationID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	if rows == nil {
		rows = []*types.ChatMessage{}
	}
	return rows, nil
}

func (s *conversationService) SendPrompt(ctx context.Context, userID, conversationID uuid.UUID, prompt, language string) (PromptResult, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return PromptResult{}, invalidInput("Message content is required")
	}
	dbc := dbctx.Context{Ctx: ctx}
	conv, err := s.ownedConversation(dbc, userID, conversationID)
	if err != nil {
		return PromptResult{}, err
	}

	userMsg, err := s.appendMessage(dbc, userID, conv.ID, chat.RoleUser, prompt, nil)
	if err != nil {
		return PromptResult{}, err
	}
	if conv.Title == chat.DefaultConversationTitle {
		title := titleFromPrompt(prompt)
		if err := s.conversationRepo.UpdateTitle(dbc, conv.ID, title); err != nil {
			s.log.Warn("Conversation title update failed", "conversation_id", conv.ID, "error", err)
		} else {
			conv.Title = title
		}
	}

	gen := s.ai.GenerateForms(ctx, prompt, language)
	saved, err := s.formService.SaveForms(ctx, userID, gen.Forms)
	if err != nil {
		s.log.Error("Saving generated forms failed", "conversation_id", conv.ID, "error", err)
		reply, merr := s.appendMessage(dbc, userID, conv.ID, chat.RoleAssistant, msgGenerationError, nil)
		if merr != nil {
			s.log.Warn("Saving error reply failed", "conversation_id", conv.ID, "error", merr)
		}
		return PromptResult{Conversation: conv, UserMessage: userMsg, AssistantMessage: reply}, err
	}

	meta := chat.GenerationMetadata{Fallback: gen.Fallback}
	for _, f := range saved {
		meta.FormIDs = append(meta.FormIDs, f.ID)
	}
	reply, err := s.appendMessage(dbc, userID, conv.ID, chat.RoleAssistant, msgFormsCreated, meta)
	if err != nil {
		return PromptResult{}, err
	}
	return PromptResult{
		Conversation:     conv,
		UserMessage:      userMsg,
		AssistantMessage: reply,
		Forms:            saved,
		Fallback:         gen.Fallback,
	}, nil
}

func (s *conversationService) appendMessage(dbc dbctx.Context, userID, conversationID uuid.UUID, role, content string, metadata any) (*types.ChatMessage, error) {
	msg := &types.ChatMessage{
		ConversationID: conversationID,
		UserID:         userID,
		Role:           role,
		Content:        content,
	}
	if metadata != nil {
		raw, err := json.Marshal(metadata)
		if err != nil {
			return nil, fmt.Errorf("encode message metadata: %w", err)
		}
		msg.Metadata = datatypes.JSON(raw)
	}
	created, err := s.messageRepo.Create(dbc, []*types.ChatMessage{msg})
	if err != nil {
		return nil, fmt.Errorf("save message: %w", err)
	}
	if err := s.conversationRepo.Touch(dbc, conversationID, s.now()); err != nil {
		s.log.Warn("Conversation touch failed", "conversation_id", conversationID, "error", err)
	}
	return created[0], nil
}

func (s *conversationService) ownedConversation(dbc dbctx.Context, userID, conversationID uuid.UUID) (*types.Conversation, error) {
	conv, err := s.conversationRepo.GetByID(dbc, conversationID)
	if err != nil {
		return nil, fmt.Errorf("load conversation: %w", err)
	}
	if conv == nil {
		return nil, ErrConversationNotFound
	}
	if conv.UserID != userID {
		return nil, ErrForbidden
	}
	return conv, nil
}

func titleFromPrompt(prompt string) string {
	title := strings.Join(strings.Fields(prompt), " ")
	if utf8.RuneCountInString(title) <= maxTitleRunes {
		return title
	}
	runes := []rune(title)
	return strings.TrimSpace(string(runes[:maxTitleRunes-3])) + "..."
}

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mapleproto/reportchat/internal/config"
	"github.com/mapleproto/reportchat/internal/data/redisStore"
	"github.com/mapleproto/reportchat/internal/domain/jobModel"
	"github.com/mapleproto/reportchat/pkg/logger_i"
)

// historyWindow is how many past turns flow into the synthesis prompt.
const historyWindow = 5

type RedisMessageStore struct {
	store  *redisStore.Store
	logger *logger_i.Logger
}

func GetRedisMessageStore(ctx context.Context) *RedisMessageStore {
	inner := redisStore.GetRedisStore(ctx, config.RedisMessageStore)
	if inner == nil {
		return nil
	}
	return &RedisMessageStore{
		store:  inner,
		logger: logger_i.NewLogger("MessageStore"),
	}
}

func (s *RedisMessageStore) ValidateChatId(ctx context.Context, chatId string) bool {
	log := s.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY), "chat Id", chatId)
	log.Debug("validating chatId")
	isFound, err := s.store.Exists(ctx, chatId)
	if s.store.IsNil(err) {
		return false
	} else if err != nil {
		log.Error("Failed to check if chatId exists", "err", err)
		return false
	}
	return isFound
}

func (s *RedisMessageStore) TrySaveChat(ctx context.Context, id string, conversation jobModel.JobPayload) error {
	log := s.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY), "chat Id", id)
	if !s.ValidateChatId(ctx, id) {
		err := errors.New("invalid chat id")
		log.Error("Failed Validation before saving", "err", err)
		return err
	}
	return s.saveChatId(ctx, id, conversation)
}

func (s *RedisMessageStore) saveChatId(ctx context.Context, id string, conversation jobModel.JobPayload) error {
	log := s.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY), "chat Id", id)
	data, err := json.Marshal(conversation)
	if err != nil {
		log.Error("Error marshalling conversation", "error:", err)
		return err
	}
	if err = s.store.ListPush(ctx, id, data); err != nil {
		log.Error("error saving chat", "error:", err)
		return err
	}
	log.Debug("Saved chat successfully")
	return nil
}

func (s *RedisMessageStore) InitNewChat(ctx context.Context, id string) error {
	log := s.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY), "chat Id", id)
	log.Debug("Initializing new chat")
	if err := s.store.Del(ctx, id); err != nil && !s.store.IsNil(err) {
		log.Error("Error initializing chat", "chatId", id)
	}
	return s.saveChatId(ctx, id, jobModel.JobPayload{})
}

// GetMessageHistory returns the recent turns of the chat, oldest first,
// formatted for a prompt. Stored entries are JobPayload JSON.
func (s *RedisMessageStore) GetMessageHistory(ctx context.Context, chatId string) (error, []string) {
	log := s.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY), "chat Id", chatId)
	log.Debug("Getting message history")

	raw, err := s.store.ListGetRecent(ctx, chatId, historyWindow)
	if err != nil {
		log.Error("Error getting history", "error:", err)
		return err, nil
	}

	var history []string
	for _, item := range raw {
		var payload jobModel.JobPayload
		if err := json.Unmarshal([]byte(item), &payload); err != nil {
			log.Error("Skipping undecodable history entry", "error:", err)
			continue
		}
		if line := formatTurn(payload); line != "" {
			history = append(history, line)
		}
	}
	return nil, history
}

func formatTurn(payload jobModel.JobPayload) string {
	if payload.Question == "" && payload.Answer == "" {
		return ""
	}
	return fmt.Sprintf("User: %s\nAssistant: %s", payload.Question, payload.Answer)
}

func TestMessageStore(store *redisStore.Store) *RedisMessageStore {
	return &RedisMessageStore{
		store:  store,
		logger: logger_i.NewLogger("test redis"),
	}
}

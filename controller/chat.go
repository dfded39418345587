package controller

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/reelforge/reelforge/common/config"
	"github.com/reelforge/reelforge/common/helper"
	"github.com/reelforge/reelforge/common/logger"
	"github.com/reelforge/reelforge/model"
	"github.com/reelforge/reelforge/pipeline/llm"
)

const chatDraftSystemPrompt = `You help users draft short-form vertical video scripts through conversation.
Ask clarifying questions when the idea is vague, and when the user is satisfied produce the
final spoken-word script. Keep answers short and concrete.`

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatDraftRequest struct {
	DraftId string        `json:"draft_id"`
	Title   string        `json:"title"`
	Message string        `json:"message"`
	History []ChatMessage `json:"-"`
}

func decodeMessages(raw string) []ChatMessage {
	var messages []ChatMessage
	if raw != "" {
		_ = json.Unmarshal([]byte(raw), &messages)
	}
	return messages
}

func encodeMessages(messages []ChatMessage) string {
	data, _ := json.Marshal(messages)
	return string(data)
}

// chatTurnTokens estimates the token cost of one drafting turn for the
// usage log.
func chatTurnTokens(message string, reply string) (promptTokens int, completionTokens int) {
	return llm.CountTokenText(message), llm.CountTokenText(reply)
}

// chatReply runs one conversational turn over the configured completer.
func chatReply(c *gin.Context, history []ChatMessage) (string, error) {
	var transcript strings.Builder
	for _, message := range history {
		transcript.WriteString(message.Role + ": " + message.Content + "\n")
	}
	return generator.Completer.CompleteText(c.Request.Context(), chatDraftSystemPrompt, transcript.String())
}

// ChatDraftMessage appends a user message to a draft (creating the draft if
// needed), gets the assistant reply and persists both.
func ChatDraftMessage(c *gin.Context) {
	var req chatDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Message) == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "A non-empty message is required",
		})
		return
	}
	userId := c.GetInt("id")

	var draft *model.ChatDraft
	if req.DraftId != "" {
		existing, err := model.GetChatDraftById(req.DraftId, userId)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"message": err.Error(),
			})
			return
		}
		draft = existing
	} else {
		title := req.Title
		if title == "" {
			title = req.Message
			if len(title) > 48 {
				title = title[:48]
			}
		}
		draft = &model.ChatDraft{
			Id:        helper.GetUUID(),
			UserId:    userId,
			Title:     title,
			CreatedAt: helper.GetTimestamp(),
		}
		if err := draft.Insert(); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"message": err.Error(),
			})
			return
		}
	}

	messages := append(decodeMessages(draft.Messages), ChatMessage{Role: "user", Content: req.Message})
	reply, err := chatReply(c, messages)
	if err != nil {
		logger.Errorf(c.Request.Context(), "chat draft completion failed: %s", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "Drafting assistant is unavailable",
		})
		return
	}
	messages = append(messages, ChatMessage{Role: "assistant", Content: reply})

	draft.Messages = encodeMessages(messages)
	draft.Script = reply
	draft.UpdatedAt = helper.GetTimestamp()
	if err := draft.Update(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": err.Error(),
		})
		return
	}

	promptTokens, completionTokens := chatTurnTokens(req.Message, reply)
	model.RecordUsageLog(c.Request.Context(), userId, model.UsageTypeTokens, draft.Id, config.LLMModel,
		promptTokens, completionTokens, 0, "chat draft")

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "",
		"data": gin.H{
			"draft_id": draft.Id,
			"reply":    reply,
		},
	})
}

func GetChatDraft(c *gin.Context) {
	draft, err := model.GetChatDraftById(c.Param("id"), c.GetInt("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"message": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "",
		"data":    draft,
	})
}

func GetUserChatDrafts(c *gin.Context) {
	page, _ := strconv.Atoi(c.Query("page"))
	if page < 1 {
		page = 1
	}
	pagesize, _ := strconv.Atoi(c.Query("pagesize"))
	if pagesize < 1 {
		pagesize = 10
	}
	drafts, total, err := model.GetUserChatDraftsAndCount(c.GetInt("id"), page, pagesize)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{
			"success": false,
			"message": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "",
		"data": gin.H{
			"list":        drafts,
			"currentPage": page,
			"pageSize":    pagesize,
			"total":       total,
		},
	})
}

var chatUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type chatStreamFrame struct {
	Type    string `json:"type"` // "delta", "done" or "error"
	Content string `json:"content,omitempty"`
}

// ChatDraftStream is the websocket variant of the drafting turn: the client
// sends one user message, the reply streams back in word chunks.
func ChatDraftStream(c *gin.Context) {
	conn, err := chatUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Errorf(c.Request.Context(), "websocket upgrade failed: %s", err.Error())
		return
	}
	defer conn.Close()
	userId := c.GetInt("id")

	for {
		var req chatDraftRequest
		if err := conn.ReadJSON(&req); err != nil {
			return
		}
		if strings.TrimSpace(req.Message) == "" {
			_ = conn.WriteJSON(chatStreamFrame{Type: "error", Content: "A non-empty message is required"})
			continue
		}

		var history []ChatMessage
		var draft *model.ChatDraft
		if req.DraftId != "" {
			existing, err := model.GetChatDraftById(req.DraftId, userId)
			if err != nil {
				_ = conn.WriteJSON(chatStreamFrame{Type: "error", Content: err.Error()})
				continue
			}
			draft = existing
			history = decodeMessages(draft.Messages)
		}
		history = append(history, ChatMessage{Role: "user", Content: req.Message})

		reply, err := chatReply(c, history)
		if err != nil {
			logger.Errorf(c.Request.Context(), "chat draft completion failed: %s", err.Error())
			_ = conn.WriteJSON(chatStreamFrame{Type: "error", Content: "Drafting assistant is unavailable"})
			continue
		}

		for _, word := range strings.Fields(reply) {
			if err := conn.WriteJSON(chatStreamFrame{Type: "delta", Content: word + " "}); err != nil {
				return
			}
		}
		_ = conn.WriteJSON(chatStreamFrame{Type: "done"})

		promptTokens, completionTokens := chatTurnTokens(req.Message, reply)
		model.RecordUsageLog(c.Request.Context(), userId, model.UsageTypeTokens, req.DraftId, config.LLMModel,
			promptTokens, completionTokens, 0, "chat draft")

		if draft != nil {
			history = append(history, ChatMessage{Role: "assistant", Content: reply})
			draft.Messages = encodeMessages(history)
			draft.Script = reply
			draft.UpdatedAt = time.Now().Unix()
			if err := draft.Update(); err != nil {
				logger.Errorf(c.Request.Context(), "failed to persist chat draft %s: %s", draft.Id, err.Error())
			}
		}
	}
}

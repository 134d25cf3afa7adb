package controller

import (
	"smartqa_backend/internal/service"
	"smartqa_backend/internal/util"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

type AIController struct {
	QAService *service.QAService
}

func NewAIController(qaService *service.QAService) *AIController {
	return &AIController{QAService: qaService}
}

// Ask godoc
// @Summary AI 问答
// @Description 指定文档时先在文档向量中检索，没有命中则由大模型直接回答
// @Tags AI
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body service.AskInput true "问题"
// @Success 200 {object} util.Response{data=service.AskResult}
// @Router /api/ai/ask [post]
func (c *AIController) Ask(ctx *gin.Context) {
	var req service.AskInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	res, err := c.QAService.Ask(ctx.Request.Context(), util.GetUserFromContext(ctx), req)
	if err != nil {
		handleError(ctx, err)
		return
	}
	util.Success(ctx, res)
}

// AskStream godoc
// @Summary AI 问答（流式）
// @Description SSE 事件依次为 source、message、error（可选）、end
// @Tags AI
// @Accept json
// @Produce text/event-stream
// @Security ApiKeyAuth
// @Param body body service.AskInput true "问题"
// @Router /api/ai/ask/stream [post]
func (c *AIController) AskStream(ctx *gin.Context) {
	var req service.AskInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	claims := util.GetUserFromContext(ctx)
	plan, err := c.QAService.Plan(ctx.Request.Context(), claims, req)
	if err != nil {
		handleError(ctx, err)
		return
	}

	stream, errChan := c.QAService.LLM.ChatStream(ctx.Request.Context(), plan.System, plan.Prompt)

	ctx.Header("Content-Type", "text/event-stream")
	ctx.Header("Cache-Control", "no-cache")
	ctx.Header("Connection", "keep-alive")

	ctx.SSEvent("source", plan.Source)
	ctx.Writer.Flush()

	var answer strings.Builder
	for content := range stream {
		answer.WriteString(content)
		ctx.SSEvent("message", content)
		ctx.Writer.Flush()
	}

	if err := <-errChan; err != nil {
		ctx.SSEvent("error", err.Error())
		ctx.Writer.Flush()
	} else {
		c.QAService.SaveHistory(claims.UserID, req.Question, plan.Result(answer.String()))
	}

	ctx.SSEvent("end", "done")
	ctx.Writer.Flush()
}

// History godoc
// @Summary 我的问答记录
// @Tags AI
// @Produce json
// @Security ApiKeyAuth
// @Param limit query int false "条数，默认 50"
// @Success 200 {object} util.Response{data=[]model.AIQAHistory}
// @Router /api/ai/history [get]
func (c *AIController) History(ctx *gin.Context) {
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "50"))
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	history, err := c.QAService.History(util.GetUserFromContext(ctx).UserID, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, history)
}

type GenerateQuestionsRequest struct {
	DocumentID   uint `json:"document_id" binding:"required"`
	NumQuestions int  `json:"num_questions"`
}

// GenerateQuestions godoc
// @Summary 根据文档生成练习题
// @Tags AI
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body GenerateQuestionsRequest true "文档与题目数量"
// @Success 200 {object} util.Response{data=object}
// @Router /api/ai/generate-questions [post]
func (c *AIController) GenerateQuestions(ctx *gin.Context) {
	var req GenerateQuestionsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	questions, err := c.QAService.GenerateQuestions(ctx.Request.Context(), util.GetUserFromContext(ctx), req.DocumentID, req.NumQuestions)
	if err != nil {
		handleError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"questions": questions})
}

type SummarizeRequest struct {
	DocumentID uint `json:"document_id" binding:"required"`
}

// Summarize godoc
// @Summary 文档摘要
// @Tags AI
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body SummarizeRequest true "文档"
// @Success 200 {object} util.Response{data=object}
// @Router /api/ai/summarize-document [post]
func (c *AIController) Summarize(ctx *gin.Context) {
	var req SummarizeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	summary, err := c.QAService.Summarize(ctx.Request.Context(), util.GetUserFromContext(ctx), req.DocumentID)
	if err != nil {
		handleError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"summary": summary})
}

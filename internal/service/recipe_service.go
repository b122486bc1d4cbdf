package service

import (
	"context"
	"fmt"
	"time"

	"github.com/chefwise/chefwise-api/internal/domain"
	openaigw "github.com/chefwise/chefwise-api/internal/integration/openai"
	"github.com/chefwise/chefwise-api/internal/metrics"
	"github.com/chefwise/chefwise-api/pkg/logger"
)

const chatSystemPrompt = `You are ChefWise, an enthusiastic and helpful AI cooking assistant. You help people discover recipes, answer cooking questions, and provide meal suggestions.

Your personality:
- Friendly and conversational
- Ask clarifying questions to understand preferences
- Offer multiple options when appropriate
- Provide detailed recipes when requested
- Give cooking tips and substitutions

When someone asks about recipes:
1. Ask about dietary restrictions, preferences, or cooking time if not mentioned
2. Offer 2-3 options based on their needs
3. When they choose one, provide a detailed recipe with ingredients and steps
4. Be ready to modify or suggest alternatives

Keep responses concise but helpful. Use emojis occasionally to be friendly.`

const generateRecipeSystemPrompt = `You are a professional chef. Generate creative, delicious recipes based on the ingredients provided. Return the response as a JSON object with: title, ingredients (array), instructions (array), and cookTime (string).`

const pantryPhotoPrompt = `Identify all food items visible in this image. Return ONLY a valid JSON array with no additional text or markdown formatting.

Each item should have this structure:
{"name": "item name", "quantity": "estimated amount", "unit": "unit type", "category": "category"}

Categories must be one of: Protein, Vegetables, Fruits, Grains, Dairy, Spices, Other

Guidelines:
- Be specific with item names (e.g., "chicken breast" not just "chicken")
- Estimate quantities based on visible amounts (e.g., "2", "1 bunch", "half")
- Use appropriate units (lbs, oz, cups, pieces, bunch, etc.)
- Include all visible food items including condiments, beverages, and packaged foods
- If quantity is unclear, provide a reasonable estimate
- Return an empty array [] if no food items are visible

Example output format:
[{"name": "eggs", "quantity": "12", "unit": "pieces", "category": "Protein"}, {"name": "milk", "quantity": "1", "unit": "gallon", "category": "Dairy"}]`

// RecipeService операции генерации рецептов и анализа фотографий
type RecipeService interface {
	// Chat ведет диалог с кулинарным ассистентом
	Chat(ctx context.Context, messages []domain.ChatMessage) (string, error)
	// GenerateRecipe генерирует рецепт из списка ингредиентов
	GenerateRecipe(ctx context.Context, ingredients string) (*domain.Recipe, error)
	// AnalyzePantryPhoto распознает продукты на фотографии
	AnalyzePantryPhoto(ctx context.Context, imageBase64, mimeType string) ([]domain.PantryItem, error)
}

// RecipeServiceConfig модели для каждой операции
type RecipeServiceConfig struct {
	ChatModel   string
	VisionModel string
}

type recipeService struct {
	gateway openaigw.Gateway
	cfg     RecipeServiceConfig
	metrics metrics.Recorder
	log     *logger.Logger
}

// NewRecipeService создает сервис
func NewRecipeService(gateway openaigw.Gateway, cfg RecipeServiceConfig, rec metrics.Recorder, log *logger.Logger) RecipeService {
	return &recipeService{
		gateway: gateway,
		cfg:     cfg,
		metrics: rec,
		log:     log,
	}
}

// Chat отправляет ассистенту последние сообщения диалога
func (s *recipeService) Chat(ctx context.Context, messages []domain.ChatMessage) (string, error) {
	// Провайдеру уходит только хвост истории
	if len(messages) > domain.ChatHistoryWindow {
		messages = messages[len(messages)-domain.ChatHistoryWindow:]
	}

	started := time.Now()

	reply, err := s.gateway.Complete(ctx, openaigw.CompletionRequest{
		Model:        s.cfg.ChatModel,
		SystemPrompt: chatSystemPrompt,
		Messages:     messages,
		Temperature:  0.8,
		MaxTokens:    500,
	})
	s.metrics.Completion("chat", outcomeOf(err), time.Since(started))
	if err != nil {
		s.log.Errorw("Chat completion failed", "error", err)
		return "", err
	}

	return reply, nil
}

// GenerateRecipe генерирует структурированный рецепт
func (s *recipeService) GenerateRecipe(ctx context.Context, ingredients string) (*domain.Recipe, error) {
	started := time.Now()

	var recipe domain.Recipe
	err := s.gateway.CompleteJSON(ctx, openaigw.CompletionRequest{
		Model:        s.cfg.ChatModel,
		SystemPrompt: generateRecipeSystemPrompt,
		Messages: []domain.ChatMessage{
			{
				Role:    domain.RoleUser,
				Content: fmt.Sprintf("Create a recipe using these ingredients: %s. Return ONLY valid JSON with no markdown formatting.", ingredients),
			},
		},
		Temperature: 0.8,
	}, &recipe)
	s.metrics.Completion("generate_recipe", outcomeOf(err), time.Since(started))
	if err != nil {
		s.log.Errorw("Recipe generation failed", "error", err)
		return nil, err
	}

	return &recipe, nil
}

// AnalyzePantryPhoto распознает продукты на фотографии и нормализует список
func (s *recipeService) AnalyzePantryPhoto(ctx context.Context, imageBase64, mimeType string) ([]domain.PantryItem, error) {
	started := time.Now()

	var items []domain.PantryItem
	err := s.gateway.CompleteJSON(ctx, openaigw.CompletionRequest{
		Model: s.cfg.VisionModel,
		Messages: []domain.ChatMessage{
			{Role: domain.RoleUser, Content: pantryPhotoPrompt},
		},
		ImageURL:    fmt.Sprintf("data:%s;base64,%s", mimeType, imageBase64),
		Temperature: 0.3,
		MaxTokens:   1500,
	}, &items)
	s.metrics.Completion("analyze_pantry_photo", outcomeOf(err), time.Since(started))
	if err != nil {
		s.log.Errorw("Pantry photo analysis failed", "error", err)
		return nil, err
	}

	return domain.NormalizePantryItems(items), nil
}

func outcomeOf(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

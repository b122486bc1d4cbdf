package handlers

import (
	"net/http"

	"github.com/chefwise/chefwise-api/internal/service"
	"github.com/chefwise/chefwise-api/pkg/logger"
	"github.com/chefwise/chefwise-api/pkg/res"
	"github.com/gin-gonic/gin"
)

// RecipeHandler обработчик генерации рецептов
type RecipeHandler struct {
	recipes service.RecipeService
	log     *logger.Logger
}

// NewRecipeHandler создает обработчик
func NewRecipeHandler(recipes service.RecipeService, log *logger.Logger) *RecipeHandler {
	return &RecipeHandler{recipes: recipes, log: log}
}

type generateRecipeRequest struct {
	Ingredients string `json:"ingredients" binding:"required,max=2000"`
}

var recipeFieldMessages = map[string]string{
	"Ingredients": "Ingredients are required",
}

// Generate обрабатывает POST /api/generate-recipe
func (h *RecipeHandler) Generate(c *gin.Context) {
	var req generateRecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		res.Error(c, http.StatusBadRequest, validationMessage(err, recipeFieldMessages, "Ingredients are required"))
		return
	}

	recipe, err := h.recipes.GenerateRecipe(c.Request.Context(), req.Ingredients)
	if err != nil {
		writeCompletionError(c, err, "Failed to generate recipe")
		return
	}

	res.Json(c, http.StatusOK, gin.H{"recipe": recipe})
}

package server

import (
	"frontrow/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetUsers handles GET /api/users?query=id|username&parameter=...
func (s *Server) GetUsers(c *fiber.Ctx) error {
	page := parsePagination(c, defaultPaginationLimit)

	users, err := s.userService.ListUsers(c.UserContext(), service.ListUsersInput{
		Query:     c.Query("query"),
		Parameter: c.Query("parameter"),
		Limit:     page.Limit,
		Offset:    page.Offset,
	})
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(users)
}

// GetMyProfile handles GET /api/users/me
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	user, err := s.userService.GetMe(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}

// GetUserProfile handles GET /api/users/:id
func (s *Server) GetUserProfile(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	user, err := s.userService.GetUser(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(user)
}

// DeleteUser handles DELETE /api/users/:id
func (s *Server) DeleteUser(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	user, err := s.userService.DeleteUser(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(user)
}

// ChangeUsername handles PUT /api/users/me/username and returns the new token.
func (s *Server) ChangeUsername(c *fiber.Ctx) error {
	var req struct {
		Username string `json:"username"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	token, err := s.userService.ChangeUsername(c.UserContext(), req.Username)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(token)
}

// ChangePassword handles PUT /api/users/me/password
func (s *Server) ChangePassword(c *fiber.Ctx) error {
	var req struct {
		Password string `json:"password"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	if err := s.userService.ChangePassword(c.UserContext(), req.Password); err != nil {
		return respondError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// ChangeImage handles PUT /api/users/me/image
func (s *Server) ChangeImage(c *fiber.Ctx) error {
	var req struct {
		Image string `json:"image"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	user, err := s.userService.ChangeImage(c.UserContext(), req.Image)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(user)
}

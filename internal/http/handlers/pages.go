package handlers

import "net/http"

func (h *Handlers) Home(w http.ResponseWriter, r *http.Request) {
	h.views.render(w, r, http.StatusOK, pageHome, pageData{Active: "home"})
}

func (h *Handlers) LoginPage(w http.ResponseWriter, r *http.Request) {
	h.views.render(w, r, http.StatusOK, pageLogin, pageData{Title: "Вход", Active: "login"})
}

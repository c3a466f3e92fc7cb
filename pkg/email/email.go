package email

import (
	"fmt"
	"strconv"

	"gopkg.in/gomail.v2"
)

type EmailService struct {
	host     string
	port     string
	username string
	password string
	from     string
}

func NewEmailService(host, port, username, password, from string) *EmailService {
	if from == "" {
		from = username
	}
	return &EmailService{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
	}
}

func (s *EmailService) SendWelcomeEmail(to, name string) error {
	port, _ := strconv.Atoi(s.port)
	d := gomail.NewDialer(s.host, port, s.username, s.password)

	if name == "" {
		name = "amigo(a)"
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", "Bem-vindo ao Secando com Smoothies! 🥤")

	body := fmt.Sprintf(
		"<h1>Olá %s!</h1>"+
			"<p>Bem-vindo ao programa Secando com Smoothies!</p>"+
			"<p>Sua jornada de transformação começa agora. Acesse o app e complete seu perfil para começar.</p>"+
			"<p>Em 21 dias você verá resultados incríveis!</p>"+
			"<p>Equipe Secando com Smoothies 💚</p>",
		name,
	)

	m.SetBody("text/html", body)

	return d.DialAndSend(m)
}
